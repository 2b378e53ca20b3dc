package ports

import (
	"context"

	"vehicle-insurance-mlops/internal/core/domain"
)

// RecordSource defines the contract for reading raw customer records
type RecordSource interface {
	// Fetch returns every document of the collection
	Fetch(ctx context.Context, collection string) ([]domain.Document, error)

	// Ping checks the source is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close(ctx context.Context) error
}
