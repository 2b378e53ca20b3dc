package ports

import "context"

// ModelStore defines the contract for the remote object store holding
// pushed model artifacts.
type ModelStore interface {
	// Put uploads data under key
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get downloads the object at key. Missing keys return domain.ErrModelNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Bucket names the bucket (or root) objects live in
	Bucket() string

	// URI renders a human readable location for key
	URI(key string) string
}
