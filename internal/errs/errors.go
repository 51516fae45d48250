// Package errs defines the error taxonomy shared across the downloader.
//
// Each error type maps to a distinct failure mode with its own handling
// policy:
//
//   - NotFoundError: a looked-up resource does not exist. Terminal for that
//     branch of work only.
//   - ServiceError: the upstream catalog is persistently erroring. Terminal
//     for the whole operation.
//   - NetworkError: a transient transport failure. Retryable; downloads
//     record a short-lived negative-cache entry instead of retrying inline.
//   - FileSystemError: a local disk failure. Surfaced immediately and never
//     cached, since retrying may succeed.
//   - DownloadError: a business-rule rejection (missing URL, oversize file).
//     Not retried.
//   - CacheError: both cache backends failed on a write. Callers may continue
//     without caching, but must not silently swallow it.
package errs

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is returned when a download's declared size exceeds the
// configured ceiling. The file is rejected, never truncated.
var ErrFileTooLarge = errors.New("file exceeds configured size limit")

// NotFoundError indicates a requested resource does not exist upstream.
type NotFoundError struct {
	Resource string // e.g. "artist", "track"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ServiceError indicates the upstream catalog service failed in a way that
// prevents the operation from proceeding.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s failed: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NetworkError indicates a transient transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FileSystemError indicates a local file system operation failed.
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("file system error at %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// DownloadError indicates a download was rejected for a business reason
// rather than a transport failure.
type DownloadError struct {
	TrackID string
	Reason  string
	Err     error
}

func (e *DownloadError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("download failed: %s", e.Reason)
	}
	return fmt.Sprintf("download of track %s failed: %s", e.TrackID, e.Reason)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// CacheError indicates that every configured cache backend rejected a write.
type CacheError struct {
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("all cache backends failed: %v", e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var t *NetworkError
	return errors.As(err, &t)
}

// IsFileSystem reports whether err is a FileSystemError.
func IsFileSystem(err error) bool {
	var t *FileSystemError
	return errors.As(err, &t)
}

// IsDownload reports whether err is a DownloadError.
func IsDownload(err error) bool {
	var t *DownloadError
	return errors.As(err, &t)
}
