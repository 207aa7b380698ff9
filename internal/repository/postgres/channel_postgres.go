package postgres

import (
	"context"
	"database/sql"

	"routecore/internal/model"
	"routecore/internal/repository"
)

// ChannelPostgres is a PostgreSQL implementation of repository.ChannelRepository.
type ChannelPostgres struct {
	db *sql.DB
}

// NewChannelPostgres creates a new ChannelPostgres repository.
func NewChannelPostgres(db *sql.DB) *ChannelPostgres {
	return &ChannelPostgres{db: db}
}

var _ repository.ChannelRepository = (*ChannelPostgres)(nil)

const channelColumns = `id, kind, name, active, healthy, success_rate, cost_per_msg, latency_ms, min_urgency, intrusive, priority, endpoint, created_at, updated_at`

// Create inserts a new channel row and returns the stored record.
func (r *ChannelPostgres) Create(ctx context.Context, c *model.Channel) (*model.Channel, error) {
	const q = `
		INSERT INTO channels (id, kind, name, active, healthy, success_rate, cost_per_msg, latency_ms, min_urgency, intrusive, priority, endpoint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + channelColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Kind,
		c.Name,
		c.Active,
		c.Healthy,
		c.SuccessRate,
		c.CostPerMsg,
		c.LatencyMS,
		c.MinUrgency,
		c.Intrusive,
		c.Priority,
		c.Endpoint,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return scanChannel(row)
}

// List returns channels, optionally restricted to active rows.
func (r *ChannelPostgres) List(ctx context.Context, onlyActive bool) ([]model.Channel, error) {
	q := `SELECT ` + channelColumns + ` FROM channels`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY priority ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Channel, 0)
	for rows.Next() {
		c, err := scanChannelRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetHealth flips the health flag for a channel.
func (r *ChannelPostgres) SetHealth(ctx context.Context, id string, healthy bool) error {
	const q = `UPDATE channels SET healthy = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, healthy)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanChannel(row *sql.Row) (*model.Channel, error) {
	return scanChannelRows(row)
}

func scanChannelRows(row rowScanner) (*model.Channel, error) {
	var c model.Channel
	if err := row.Scan(
		&c.ID,
		&c.Kind,
		&c.Name,
		&c.Active,
		&c.Healthy,
		&c.SuccessRate,
		&c.CostPerMsg,
		&c.LatencyMS,
		&c.MinUrgency,
		&c.Intrusive,
		&c.Priority,
		&c.Endpoint,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
