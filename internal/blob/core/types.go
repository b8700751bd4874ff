// Package core defines the object store that experiment archives are written to.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver names a backend in configuration.
type Driver string

// Backends.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Object describes one stored object.
type Object struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type,omitempty"`
	Checksum    string            `json:"checksum,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Modified    time.Time         `json:"modified"`
}

// PutOptions carries the optional attributes of a write.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is a flat namespace of slash-separated keys. Put overwrites.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	// Get returns the object and its content; the caller closes the reader.
	Get(ctx context.Context, key string) (Object, io.ReadCloser, error)
	// List returns the objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ErrNotFound reports a missing key.
var ErrNotFound = errors.New("object not found")

// NotFound returns ErrNotFound annotated with key.
func NotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

// ValidateKey rejects empty, absolute and parent-relative keys and returns the cleaned form.
func ValidateKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty object key")
	}
	if path.IsAbs(key) {
		return "", fmt.Errorf("object key %q must be relative", key)
	}
	if key == ".." || strings.HasPrefix(key, "../") || strings.Contains(key, "/../") || strings.HasSuffix(key, "/..") {
		return "", fmt.Errorf("object key %q leaves the store", key)
	}
	return path.Clean(key), nil
}

// CopyMetadata returns an independent copy of md; nil stays nil.
func CopyMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	cp := make(map[string]string, len(md))
	for k, v := range md {
		cp[k] = v
	}
	return cp
}
