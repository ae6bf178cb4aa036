package jobx

import "time"

// Options configures the engine.
type Options struct {
	Concurrency     int
	QueueCapacity   int
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	JobTimeout      time.Duration
	ProgressCadence time.Duration
	ShutdownTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		Concurrency:     5,
		QueueCapacity:   256,
		MaxAttempts:     3,
		RetryBaseDelay:  2 * time.Second,
		RetryMaxDelay:   time.Minute,
		JobTimeout:      15 * time.Minute,
		ProgressCadence: 2 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// EngineOption is a functional option for configuring the engine.
type EngineOption func(*Options)

// WithConcurrency caps the number of jobs executing at once.
func WithConcurrency(n int) EngineOption {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithQueueCapacity sets the submission queue buffer size.
func WithQueueCapacity(n int) EngineOption {
	return func(o *Options) {
		if n > 0 {
			o.QueueCapacity = n
		}
	}
}

// WithMaxAttempts sets the default attempt limit for submitted jobs.
func WithMaxAttempts(n int) EngineOption {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithRetryDelays sets the backoff base and cap used between attempts.
func WithRetryDelays(base, max time.Duration) EngineOption {
	return func(o *Options) {
		if base > 0 {
			o.RetryBaseDelay = base
		}
		if max > 0 {
			o.RetryMaxDelay = max
		}
	}
}

// WithJobTimeout bounds a single attempt's total duration.
func WithJobTimeout(d time.Duration) EngineOption {
	return func(o *Options) {
		if d > 0 {
			o.JobTimeout = d
		}
	}
}

// WithProgressCadence sets how often the engine nudges progress toward 90
// while a processor runs.
func WithProgressCadence(d time.Duration) EngineOption {
	return func(o *Options) {
		if d > 0 {
			o.ProgressCadence = d
		}
	}
}

// WithShutdownTimeout sets the maximum time Stop waits for running jobs.
func WithShutdownTimeout(d time.Duration) EngineOption {
	return func(o *Options) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// SubmitOptions configures one submission.
type SubmitOptions struct {
	MaxAttempts int
	Delay       time.Duration
}

// SubmitOption is a functional option for Submit.
type SubmitOption func(*SubmitOptions)

// WithSubmitMaxAttempts overrides the engine default attempt limit.
func WithSubmitMaxAttempts(n int) SubmitOption {
	return func(o *SubmitOptions) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithSubmitDelay delays the first execution.
func WithSubmitDelay(d time.Duration) SubmitOption {
	return func(o *SubmitOptions) {
		if d > 0 {
			o.Delay = d
		}
	}
}
