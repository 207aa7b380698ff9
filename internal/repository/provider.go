package repository

import (
	"context"

	"routecore/internal/model"
)

// ProviderRepository defines data access for payment providers.
// No business logic here; strictly persistence operations.
type ProviderRepository interface {
	// Create inserts a new provider record and returns the stored row.
	Create(ctx context.Context, p *model.Provider) (*model.Provider, error)

	// FindByID returns a provider by its ID.
	FindByID(ctx context.Context, id string) (*model.Provider, error)

	// List returns providers; when onlyActive is true, inactive rows are skipped.
	List(ctx context.Context, onlyActive bool) ([]model.Provider, error)

	// SetHealth flips the health flag for a provider.
	SetHealth(ctx context.Context, id string, healthy bool) error
}
