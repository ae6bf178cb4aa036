// Package fsxs3 implements fsx.FileReader over an S3 bucket.
package fsxs3

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Reader reads documents from a single bucket. The "path" given to its
// methods is the object key.
type S3Reader struct {
	client *s3.Client
	bucket string
}

// NewS3Reader creates a reader for bucket using the given client.
func NewS3Reader(client *s3.Client, bucket string) *S3Reader {
	return &S3Reader{client: client, bucket: bucket}
}

func (r *S3Reader) ReadFile(ctx context.Context, key string) ([]byte, error) {
	rc, err := r.ReadFileStream(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fsx.ReadFailed(key, err)
	}
	return data, nil
}

func (r *S3Reader) ReadFileStream(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fsx.NotFound(key)
		}
		return nil, fsx.ReadFailed(key, err)
	}
	return out.Body, nil
}

func (r *S3Reader) Stat(ctx context.Context, key string) (fsx.FileInfo, error) {
	out, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return fsx.FileInfo{}, fsx.NotFound(key)
		}
		return fsx.FileInfo{}, fsx.ReadFailed(key, err)
	}

	info := fsx.FileInfo{
		Name:        path.Base(key),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	return info, nil
}

func (r *S3Reader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fsx.ReadFailed(key, err)
	}
	return true, nil
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

func isNoSuchKey(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
