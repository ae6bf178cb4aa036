package fsx

import (
	"context"
	"io"
	"strings"
)

// Router dispatches reads by reference scheme: http(s) URLs go to the remote
// reader, s3:// keys to the object reader, everything else to local. Readers
// left nil make their scheme a not-found.
type Router struct {
	Local  FileReader
	Remote FileReader
	Object FileReader
}

func (r *Router) pick(ref string) FileReader {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.Remote
	case strings.HasPrefix(ref, "s3://"):
		return r.Object
	default:
		return r.Local
	}
}

func (r *Router) ReadFile(ctx context.Context, path string) ([]byte, error) {
	reader := r.pick(path)
	if reader == nil {
		return nil, NotFound(path)
	}
	return reader.ReadFile(ctx, trimScheme(path))
}

func (r *Router) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	reader := r.pick(path)
	if reader == nil {
		return nil, NotFound(path)
	}
	return reader.ReadFileStream(ctx, trimScheme(path))
}

func (r *Router) Stat(ctx context.Context, path string) (FileInfo, error) {
	reader := r.pick(path)
	if reader == nil {
		return FileInfo{}, NotFound(path)
	}
	return reader.Stat(ctx, trimScheme(path))
}

func (r *Router) Exists(ctx context.Context, path string) (bool, error) {
	reader := r.pick(path)
	if reader == nil {
		return false, nil
	}
	return reader.Exists(ctx, trimScheme(path))
}

// trimScheme strips the s3:// prefix (and its bucket handling lives in the
// reader); HTTP URLs pass through untouched.
func trimScheme(ref string) string {
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return rest[i+1:]
		}
		return rest
	}
	return ref
}
