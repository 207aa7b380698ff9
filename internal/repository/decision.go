package repository

import (
	"context"

	"routecore/internal/model"
)

// DecisionRepository defines data access for routing decision audit records.
type DecisionRepository interface {
	// Create inserts a decision record and returns the stored row.
	Create(ctx context.Context, d *model.RouteDecision) (*model.RouteDecision, error)

	// FindByID returns a decision by its ID.
	FindByID(ctx context.Context, id string) (*model.RouteDecision, error)

	// List returns a paginated list of decisions, newest first, and the total count.
	// kind filters to payment or notification decisions; empty means both.
	List(ctx context.Context, kind string, pq PageQuery) (*PageResult[model.RouteDecision], error)
}
