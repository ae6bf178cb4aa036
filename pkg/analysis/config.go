package analysis

import "time"

// Config bounds the pipeline's external calls and quality gates.
type Config struct {
	FetchTimeout    time.Duration
	PDFTimeout      time.Duration
	OCRTimeout      time.Duration
	QuestionTimeout time.Duration
	ConceptTimeout  time.Duration
	MinTextLength   int
	PreviewLength   int
}

// DefaultConfig returns production defaults. OCR gets the longest budget:
// it is the slowest backend in the pipeline by a wide margin.
func DefaultConfig() Config {
	return Config{
		FetchTimeout:    30 * time.Second,
		PDFTimeout:      60 * time.Second,
		OCRTimeout:      5 * time.Minute,
		QuestionTimeout: 2 * time.Minute,
		ConceptTimeout:  45 * time.Second,
		MinTextLength:   50,
		PreviewLength:   5000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.PDFTimeout <= 0 {
		c.PDFTimeout = d.PDFTimeout
	}
	if c.OCRTimeout <= 0 {
		c.OCRTimeout = d.OCRTimeout
	}
	if c.QuestionTimeout <= 0 {
		c.QuestionTimeout = d.QuestionTimeout
	}
	if c.ConceptTimeout <= 0 {
		c.ConceptTimeout = d.ConceptTimeout
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = d.MinTextLength
	}
	if c.PreviewLength <= 0 {
		c.PreviewLength = d.PreviewLength
	}
	return c
}
