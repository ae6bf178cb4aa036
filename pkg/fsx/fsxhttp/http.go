// Package fsxhttp implements fsx.FileReader for remote documents referenced
// by URL. Every fetch runs under a hard timeout so a slow origin cannot stall
// the pipeline past its budget.
package fsxhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/Abraxas-365/lectio/pkg/errx"
	"github.com/Abraxas-365/lectio/pkg/fsx"
)

// HTTPReader fetches documents over HTTP(S). The "path" given to its methods
// is a full URL.
type HTTPReader struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures the reader.
type Option func(*HTTPReader)

// WithTimeout sets the per-fetch timeout. Default is 30s.
func WithTimeout(d time.Duration) Option {
	return func(r *HTTPReader) { r.timeout = d }
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(r *HTTPReader) { r.client = c }
}

// NewHTTPReader creates a remote document reader.
func NewHTTPReader(opts ...Option) *HTTPReader {
	r := &HTTPReader{
		client:  &http.Client{},
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *HTTPReader) ReadFile(ctx context.Context, url string) ([]byte, error) {
	rc, err := r.ReadFileStream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrapFetchErr(url, err)
	}
	return data, nil
}

func (r *HTTPReader) ReadFileStream(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fsx.ReadFailed(url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		cancel()
		return nil, wrapFetchErr(url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		cancel()
		return nil, fsx.NotFound(url)
	case resp.StatusCode >= 400:
		resp.Body.Close()
		cancel()
		return nil, fsx.ReadFailed(url, errors.New(resp.Status))
	}

	// The cancel func must outlive this call: it is released when the body
	// is closed.
	return &cancelReadCloser{rc: resp.Body, cancel: cancel}, nil
}

func (r *HTTPReader) Stat(ctx context.Context, url string) (fsx.FileInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fsx.FileInfo{}, fsx.ReadFailed(url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fsx.FileInfo{}, wrapFetchErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fsx.FileInfo{}, fsx.NotFound(url)
	}
	if resp.StatusCode >= 400 {
		return fsx.FileInfo{}, fsx.ReadFailed(url, errors.New(resp.Status))
	}

	return fsx.FileInfo{
		Name:        path.Base(req.URL.Path),
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (r *HTTPReader) Exists(ctx context.Context, url string) (bool, error) {
	_, err := r.Stat(ctx, url)
	if err != nil {
		var xe *errx.Error
		if errx.As(err, &xe) && xe.Type == errx.TypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func wrapFetchErr(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fsx.Timeout(url, err)
	}
	return fsx.ReadFailed(url, err)
}

type cancelReadCloser struct {
	rc     io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Read(p []byte) (int, error) { return c.rc.Read(p) }

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.rc.Close()
}
