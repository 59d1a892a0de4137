package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStored is returned when a ref has no remote object behind it.
	ErrNotStored = errors.New("reference does not point at stored media")
	// ErrUploadTimeout marks a transfer that exceeded storage.upload_timeout.
	ErrUploadTimeout = errors.New("upload timed out")
)

// UploadError wraps any failure while pushing content to a backend.
// The whole finalize is retryable.
type UploadError struct {
	Backend string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s failed: %v", e.Backend, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ConfigurationError means a backend is missing required settings. Not retryable.
type ConfigurationError struct {
	Backend string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("storage backend %s is not configured: %s", e.Backend, e.Reason)
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsUploadError reports whether err carries an UploadError.
func IsUploadError(err error) bool {
	var upErr *UploadError
	return errors.As(err, &upErr)
}
