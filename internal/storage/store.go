package storage

import "context"

// ObjectStore is the binary-store contract: the original document lives
// under its source path, derived images are written under deterministic
// keys. Implementations own their own timeouts per call.
type ObjectStore interface {
	// Download returns the full object at path.
	Download(ctx context.Context, path string) ([]byte, error)

	// Upload writes data under path with the given content type and returns
	// the stored path.
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
}
