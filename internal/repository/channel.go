package repository

import (
	"context"

	"routecore/internal/model"
)

// ChannelRepository defines data access for notification channels.
type ChannelRepository interface {
	// Create inserts a new channel record and returns the stored row.
	Create(ctx context.Context, c *model.Channel) (*model.Channel, error)

	// List returns channels; when onlyActive is true, inactive rows are skipped.
	List(ctx context.Context, onlyActive bool) ([]model.Channel, error)

	// SetHealth flips the health flag for a channel.
	SetHealth(ctx context.Context, id string, healthy bool) error
}
