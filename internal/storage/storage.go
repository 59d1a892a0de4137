package storage

import (
	"context"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// DefaultUploadTimeout bounds a single Store call when none is configured.
const DefaultUploadTimeout = 60 * time.Second

// ProgressFunc receives transfer progress in percent (0..100).
type ProgressFunc func(percent float64)

// Object is one clip to be stored.
type Object struct {
	Content     []byte
	ContentType string
	Name        string
}

// Backend is a single storage provider. Each backend only ever sees refs of its own Kind.
type Backend interface {
	Kind() Kind
	Name() string

	// Store pushes the object and returns a ref stamped with the backend's Kind.
	Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error)

	// Resolve returns a displayable URL for the ref.
	Resolve(ctx context.Context, ref Ref) (string, error)

	// Open fetches the stored binary.
	Open(ctx context.Context, ref Ref) (io.ReadCloser, error)

	// Remove deletes the object from the provider.
	Remove(ctx context.Context, ref Ref) error
}

// BlobStore is what the rest of the application uses. Implemented by Router.
type BlobStore interface {
	// Store uploads to the active backend, bounded by the upload timeout.
	Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error)

	// Resolve returns a displayable URL, or "" for empty and deleted refs.
	Resolve(ctx context.Context, ref Ref) (string, error)

	// Open fetches the binary behind a ref.
	Open(ctx context.Context, ref Ref) (io.ReadCloser, error)

	// Remove is best-effort: backend failures are logged, never returned.
	Remove(ctx context.Context, ref Ref) error

	// RemoveAll attempts every ref and returns the combined failures.
	RemoveAll(ctx context.Context, refs []Ref) error

	// Parse classifies a stored reference string.
	Parse(raw string) Ref
}
