// Package fsxlocal implements fsx.FileReader over the local filesystem.
package fsxlocal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/errx"
	"github.com/Abraxas-365/lectio/pkg/fsx"
)

// LocalReader reads files below a base directory. Paths are cleaned and
// confined to the base so a document reference cannot escape it.
type LocalReader struct {
	basePath string
}

// NewLocalReader creates a reader rooted at basePath, creating it if needed.
func NewLocalReader(basePath string) (*LocalReader, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errx.Wrap(err, "failed to create base directory", errx.TypeInternal)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errx.Wrap(err, "failed to resolve base directory", errx.TypeInternal)
	}
	return &LocalReader{basePath: abs}, nil
}

func (r *LocalReader) fullPath(path string) (string, error) {
	full := filepath.Join(r.basePath, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, r.basePath) {
		return "", fsx.NotFound(path)
	}
	return full, nil
}

func (r *LocalReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	full, err := r.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsx.NotFound(path)
		}
		return nil, fsx.ReadFailed(path, err)
	}
	return data, nil
}

func (r *LocalReader) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := r.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsx.NotFound(path)
		}
		return nil, fsx.ReadFailed(path, err)
	}
	return f, nil
}

func (r *LocalReader) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	full, err := r.fullPath(path)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsx.FileInfo{}, fsx.NotFound(path)
		}
		return fsx.FileInfo{}, fsx.ReadFailed(path, err)
	}
	return fsx.FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (r *LocalReader) Exists(ctx context.Context, path string) (bool, error) {
	full, err := r.fullPath(path)
	if err != nil {
		return false, nil
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fsx.ReadFailed(path, err)
	}
	return true, nil
}
