// Package storage keeps the bytes of uploaded project files.
//
// Metadata (who uploaded what, display names) lives in the database; a
// FileStore only knows "project N has an object called X". Two backends exist:
// LocalStore writes under a directory on disk, S3Store writes to a bucket on
// any S3-compatible service (AWS, MinIO).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileStore stores opaque file contents grouped by project.
//
// name is always a server-generated stored name, never raw user input,
// but implementations still reduce it to its base name.
type FileStore interface {
	// Save writes r under (projectID, name), replacing any existing object.
	Save(ctx context.Context, projectID int64, name string, r io.Reader) error

	// Open returns the object's contents. The caller must Close the reader.
	// Returns ErrNotFound if the object does not exist.
	Open(ctx context.Context, projectID int64, name string) (io.ReadCloser, error)

	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, projectID int64, name string) error
}
