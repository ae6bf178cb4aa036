// Package ocr abstracts optical text recognition behind a minimal interface
// so the pipeline does not care which backend reads an image.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
)

// TextRecognizer is the minimal OCR interface all providers implement.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, input Input, opts ...Option) (*Result, error)
}

// InputType discriminates how the input bytes are referenced.
type InputType string

const (
	InputTypeURL    InputType = "url"
	InputTypeBase64 InputType = "base64"
)

// Input represents an image handed to a recognizer.
type Input struct {
	Type     InputType
	URL      string
	Data     []byte
	MimeType string
}

// FromURL builds an Input referencing a remote image.
func FromURL(url string) Input {
	return Input{Type: InputTypeURL, URL: url}
}

// FromBytes builds an Input carrying raw image bytes.
func FromBytes(data []byte, mimeType string) Input {
	return Input{Type: InputTypeBase64, Data: data, MimeType: mimeType}
}

// DataURI renders the input as a base64 data URI for vision models.
func (in Input) DataURI() string {
	if in.Type == InputTypeURL {
		return in.URL
	}
	mime := in.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(in.Data))
}

// Result is the recognizer output. OCR backends are expected to sometimes
// return empty or garbled text instead of an error; callers must validate
// text length, not just the absence of an error.
type Result struct {
	Text       string
	Confidence float32
	Metadata   map[string]any
}

// Options tune a recognition call.
type Options struct {
	Model         string
	LanguageHints []string
}

// Option is a functional option for recognition.
type Option func(*Options)

// WithModel selects the recognizer model.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithLanguageHints biases recognition toward the given languages.
func WithLanguageHints(langs ...string) Option {
	return func(o *Options) { o.LanguageHints = langs }
}
