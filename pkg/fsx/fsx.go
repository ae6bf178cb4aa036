// Package fsx abstracts where document bytes come from: local disk, a remote
// URL, or an object store. The pipeline only ever reads.
package fsx

import (
	"context"
	"io"
	"time"

	"github.com/Abraxas-365/lectio/pkg/errx"
)

// FileInfo describes a stored file.
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
	Metadata    map[string]string
}

// FileReader provides read-only access to files.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound   = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrReadFailed = fsxErrors.Register("READ_FAILED", errx.TypeExternal, 502, "Failed to read file")
	ErrTimeout    = fsxErrors.Register("TIMEOUT", errx.TypeExternal, 504, "File read timed out")
)

// NotFound builds a not-found error for path.
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// ReadFailed wraps a read failure for path.
func ReadFailed(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrReadFailed, cause).WithDetail("path", path)
}

// Timeout wraps a timeout for path.
func Timeout(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrTimeout, cause).WithDetail("path", path)
}
