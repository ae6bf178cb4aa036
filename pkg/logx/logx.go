// Package logx is a thin structured-logging facade over zerolog. It keeps a
// package-level default logger so library code can log without threading a
// logger through every constructor, while cmd/ remains free to replace it.
package logx

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Fields is a set of structured log fields.
type Fields map[string]any

var defaultLogger zerolog.Logger

func init() {
	defaultLogger = newLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if strings.ToLower(format) == "console" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out)
	} else {
		base = zerolog.New(os.Stdout)
	}
	return base.Level(lvl).With().Timestamp().Logger()
}

// Configure replaces the default logger. level is one of trace|debug|info|
// warn|error, format is json|console.
func Configure(level, format string) {
	defaultLogger = newLogger(level, format)
}

// SetDefaultLogger replaces the default logger with a caller-built one.
func SetDefaultLogger(l zerolog.Logger) { defaultLogger = l }

// GetDefaultLogger returns the current default logger.
func GetDefaultLogger() zerolog.Logger { return defaultLogger }

func Debug(msg string)               { defaultLogger.Debug().Msg(msg) }
func Info(msg string)                { defaultLogger.Info().Msg(msg) }
func Warn(msg string)                { defaultLogger.Warn().Msg(msg) }
func Error(msg string)               { defaultLogger.Error().Msg(msg) }
func Debugf(f string, args ...any)   { defaultLogger.Debug().Msgf(f, args...) }
func Infof(f string, args ...any)    { defaultLogger.Info().Msgf(f, args...) }
func Warnf(f string, args ...any)    { defaultLogger.Warn().Msgf(f, args...) }
func Errorf(f string, args ...any)   { defaultLogger.Error().Msgf(f, args...) }

// Fatal logs at fatal level and exits.
func Fatal(msg string) { defaultLogger.Fatal().Msg(msg) }

// Fatalf logs a formatted fatal message and exits.
func Fatalf(f string, args ...any) { defaultLogger.Fatal().Msgf(f, args...) }

// Entry carries accumulated fields toward a final log call.
type Entry struct {
	logger zerolog.Logger
}

// WithField starts an entry with a single field.
func WithField(key string, value any) *Entry {
	return &Entry{logger: defaultLogger.With().Interface(key, value).Logger()}
}

// WithFields starts an entry with a set of fields.
func WithFields(fields Fields) *Entry {
	ctx := defaultLogger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Entry{logger: ctx.Logger()}
}

// WithError starts an entry with an error field.
func WithError(err error) *Entry {
	return &Entry{logger: defaultLogger.With().AnErr("error", err).Logger()}
}

// WithField adds a field to the entry.
func (e *Entry) WithField(key string, value any) *Entry {
	return &Entry{logger: e.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error field to the entry.
func (e *Entry) WithError(err error) *Entry {
	return &Entry{logger: e.logger.With().AnErr("error", err).Logger()}
}

// WithFields adds a set of fields to the entry.
func (e *Entry) WithFields(fields Fields) *Entry {
	ctx := e.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Entry{logger: ctx.Logger()}
}

func (e *Entry) Debug(msg string)             { e.logger.Debug().Msg(msg) }
func (e *Entry) Info(msg string)              { e.logger.Info().Msg(msg) }
func (e *Entry) Warn(msg string)              { e.logger.Warn().Msg(msg) }
func (e *Entry) Error(msg string)             { e.logger.Error().Msg(msg) }
func (e *Entry) Debugf(f string, args ...any) { e.logger.Debug().Msgf(f, args...) }
func (e *Entry) Infof(f string, args ...any)  { e.logger.Info().Msgf(f, args...) }
func (e *Entry) Warnf(f string, args ...any)  { e.logger.Warn().Msgf(f, args...) }
func (e *Entry) Errorf(f string, args ...any) { e.logger.Error().Msgf(f, args...) }
func (e *Entry) Fatal(msg string)             { e.logger.Fatal().Msg(msg) }
func (e *Entry) Fatalf(f string, args ...any) { e.logger.Fatal().Msgf(f, args...) }
