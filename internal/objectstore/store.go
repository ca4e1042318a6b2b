// Package objectstore abstracts a blob store with version-tagged
// conditional writes, the primitive the feedback counter's optimistic
// concurrency builds on.
package objectstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for absent keys.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed is returned by conditional writes when the
	// stored version no longer matches.
	ErrPreconditionFailed = errors.New("object version mismatch")
)

// Object is a stored blob together with its current version tag.
type Object struct {
	Data []byte
	ETag string
}

type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	// Put writes unconditionally.
	Put(ctx context.Context, key string, data []byte) error
	// PutIfMatch writes only when the stored version tag equals etag.
	PutIfMatch(ctx context.Context, key string, data []byte, etag string) error
	// PutIfAbsent writes only when no object exists under key.
	PutIfAbsent(ctx context.Context, key string, data []byte) error
}
