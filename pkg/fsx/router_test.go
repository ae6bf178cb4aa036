package fsx_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Abraxas-365/lectio/pkg/fsx"
)

type recordingReader struct {
	lastPath string
	data     []byte
}

func (r *recordingReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	r.lastPath = path
	return r.data, nil
}

func (r *recordingReader) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	r.lastPath = path
	return io.NopCloser(nil), nil
}

func (r *recordingReader) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	r.lastPath = path
	return fsx.FileInfo{Name: path, ModTime: time.Now()}, nil
}

func (r *recordingReader) Exists(ctx context.Context, path string) (bool, error) {
	r.lastPath = path
	return true, nil
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	local := &recordingReader{data: []byte("local")}
	remote := &recordingReader{data: []byte("remote")}
	object := &recordingReader{data: []byte("object")}
	router := &fsx.Router{Local: local, Remote: remote, Object: object}

	ctx := context.Background()

	if data, _ := router.ReadFile(ctx, "uploads/doc.pdf"); string(data) != "local" {
		t.Fatalf("plain path should hit local, got %q", data)
	}
	if local.lastPath != "uploads/doc.pdf" {
		t.Fatalf("local path mangled: %q", local.lastPath)
	}

	if data, _ := router.ReadFile(ctx, "https://example.com/doc.pdf"); string(data) != "remote" {
		t.Fatalf("https URL should hit remote, got %q", data)
	}
	if remote.lastPath != "https://example.com/doc.pdf" {
		t.Fatalf("URL must pass through untouched: %q", remote.lastPath)
	}

	if data, _ := router.ReadFile(ctx, "s3://bucket/key/doc.pdf"); string(data) != "object" {
		t.Fatalf("s3 ref should hit object reader, got %q", data)
	}
	if object.lastPath != "key/doc.pdf" {
		t.Fatalf("s3 scheme and bucket should be stripped, got %q", object.lastPath)
	}
}

func TestRouter_NilReaderIsNotFound(t *testing.T) {
	router := &fsx.Router{}
	if _, err := router.ReadFile(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected not-found for unconfigured scheme")
	}
	if ok, _ := router.Exists(context.Background(), "anything"); ok {
		t.Fatal("unconfigured scheme must not exist")
	}
}
