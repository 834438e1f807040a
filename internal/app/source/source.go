// Package source stores and opens the audio bytes behind track sources.
//
// A source reference is a string of the form "<scheme>:<key>" for stored blobs
// (for example "mem:3f1c..." or "minio:uploads/3f1c...") or a plain filesystem path.
package source

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrNotFound      = errors.New("source not found")
	ErrReadOnly      = errors.New("source store is read-only")
	ErrUnknownScheme = errors.New("unknown source scheme")
)

// Object is an opened source.
type Object struct {
	io.ReadSeekCloser
	ContentType string
	Size        int64
}

// Store puts, opens and releases sources.
type Store interface {
	// Scheme returns the reference scheme handled by the store ("" for paths).
	Scheme() string
	// Put stores data and returns its reference.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Open opens a reference for reading.
	Open(ctx context.Context, ref string) (*Object, error)
	// Release deletes the data behind a reference.
	Release(ctx context.Context, ref string) error
}

// Ref builds a reference from a scheme and key.
func Ref(scheme, key string) string {
	if scheme == "" {
		return key
	}
	return scheme + ":" + key
}

// Split returns the scheme and key of a reference.
// Plain paths, including Windows drive letters, have an empty scheme.
func Split(ref string) (scheme, key string) {
	scheme, key, ok := strings.Cut(ref, ":")
	if !ok || len(scheme) < 2 || strings.ContainsAny(scheme, `/\.`) {
		return "", ref
	}
	return scheme, key
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }

// NopCloser wraps r with a no-op Close.
func NopCloser(r io.ReadSeeker) io.ReadSeekCloser {
	return nopSeekCloser{r}
}
