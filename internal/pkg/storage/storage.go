package storage

import (
	"context"
	"io"
	"time"
)

type FileStorage interface {
	// Upload stores the content under path and returns the cleaned key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Delete removes a stored object; deleting a missing key is not an error
	Delete(ctx context.Context, path string) error

	// GetURL returns a URL the client can fetch the object from. A zero expiry means
	// the URL does not expire.
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// Exists checks if the object exists
	Exists(ctx context.Context, path string) (bool, error)

	// KeyFromURL reverses GetURL for URLs this storage issued
	KeyFromURL(url string) (string, bool)
}
