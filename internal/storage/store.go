// Package storage keeps uploaded room photos and finished designs in a blob
// store. Keys are slash-separated relative paths such as
// "request_images/<uuid>.jpg".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"atelier/internal/config"
	"atelier/internal/observability"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverMemory     Driver = "memory"
	DriverS3         Driver = "s3"
	DriverMinio      Driver = "minio"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored blob.
type Info struct {
	Key         string `json:"key"`
	Size        int64  `json:"size_bytes"`
	ContentType string `json:"content_type,omitempty"`
}

// Store is the blob backend used by the request service and media handler.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// Open builds the store selected by cfg.BlobDriver, wrapped with metrics.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Driver(cfg.BlobDriver) {
	case DriverFilesystem, "":
		s, err = NewFSStore(cfg.BlobFSRoot)
	case DriverMemory:
		s = NewMemoryStore()
	case DriverS3:
		s, err = NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
	case DriverMinio:
		s, err = NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", cfg.BlobDriver, err)
	}
	return Instrument(s), nil
}

// CleanKey rejects empty, absolute and traversing keys and returns the
// normalized form.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return cleaned, nil
}

// ContentTypeFor guesses a MIME type from the key's extension.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type instrumented struct {
	Store
}

// Instrument counts every call in observability.BlobOperations.
func Instrument(s Store) Store {
	if _, ok := s.(instrumented); ok {
		return s
	}
	return instrumented{Store: s}
}

func (s instrumented) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error) {
	info, err := s.Store.Put(ctx, key, r, size, contentType)
	observability.RecordBlobOp(string(s.Driver()), "put", err)
	return info, err
}

func (s instrumented) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, rc, err := s.Store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		observability.RecordBlobOp(string(s.Driver()), "get", nil)
	} else {
		observability.RecordBlobOp(string(s.Driver()), "get", err)
	}
	return info, rc, err
}

func (s instrumented) Delete(ctx context.Context, key string) error {
	err := s.Store.Delete(ctx, key)
	observability.RecordBlobOp(string(s.Driver()), "delete", err)
	return err
}
