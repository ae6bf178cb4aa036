package analysis_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/Abraxas-365/lectio/pkg/ai/ocr"
	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/fsx"
)

// fakeFiles is an in-memory document source.
type fakeFiles map[string][]byte

func (f fakeFiles) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if data, ok := f[path]; ok {
		return data, nil
	}
	return nil, fsx.NotFound(path)
}

func (f fakeFiles) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	data, err := f.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f fakeFiles) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	data, err := f.ReadFile(ctx, path)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	return fsx.FileInfo{Name: path, Size: int64(len(data)), ModTime: time.Now()}, nil
}

func (f fakeFiles) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := f[path]
	return ok, nil
}

// fakePDF returns canned pages or an error.
type fakePDF struct {
	pages []string
	err   error
}

func (f fakePDF) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// fakeOCR returns canned text or an error.
type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) RecognizeText(ctx context.Context, input ocr.Input, opts ...ocr.Option) (*ocr.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.Result{Text: f.text}, nil
}

// fakeQuestionService returns canned questions, an error, or counts calls.
type fakeQuestionService struct {
	questions []analysis.Question
	err       error
	calls     int
}

func (f *fakeQuestionService) ExtractQuestions(ctx context.Context, text, courseContext string) ([]analysis.Question, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

// fakeConceptService proposes per-question candidates through fn, or fails.
type fakeConceptService struct {
	fn  func(questionText string) []analysis.CandidateConcept
	err error
}

func (f *fakeConceptService) SuggestConcepts(ctx context.Context, questionText, courseContext string) ([]analysis.CandidateConcept, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(questionText), nil
}

var errUnavailable = errors.New("service unavailable")
