package ports

import "context"

// Deployer defines the contract for rolling the prediction service onto a
// newly pushed model.
type Deployer interface {
	// Restart triggers a rolling restart so serving replicas reload the current model
	Restart(ctx context.Context) error

	// IsAvailable checks if deployment integration is enabled and configured
	IsAvailable() bool
}
