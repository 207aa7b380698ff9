package postgres

import (
	"context"
	"database/sql"
	"strings"

	"routecore/internal/model"
	"routecore/internal/repository"
)

// ProviderPostgres is a PostgreSQL implementation of repository.ProviderRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Array columns cross the driver boundary as comma-joined text
// (string_to_array/array_to_string) to stay on database/sql types.
type ProviderPostgres struct {
	db *sql.DB
}

// NewProviderPostgres creates a new ProviderPostgres repository.
func NewProviderPostgres(db *sql.DB) *ProviderPostgres {
	return &ProviderPostgres{db: db}
}

var _ repository.ProviderRepository = (*ProviderPostgres)(nil)

const providerColumns = `id, name, active, healthy, success_rate, fee_rate, fee_fixed, latency_ms,
		array_to_string(currencies, ','), array_to_string(regions, ','), priority, endpoint, created_at, updated_at`

// Create inserts a new provider row and returns the stored record.
func (r *ProviderPostgres) Create(ctx context.Context, p *model.Provider) (*model.Provider, error) {
	const q = `
		INSERT INTO providers (id, name, active, healthy, success_rate, fee_rate, fee_fixed, latency_ms, currencies, regions, priority, endpoint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, string_to_array($9, ','), string_to_array($10, ','), $11, $12, $13, $14)
		RETURNING ` + providerColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Active,
		p.Healthy,
		p.SuccessRate,
		p.FeeRate,
		p.FeeFixed,
		p.LatencyMS,
		joinList(p.Currencies),
		joinList(p.Regions),
		p.Priority,
		p.Endpoint,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanProvider(row)
}

// FindByID fetches a single provider by its ID.
func (r *ProviderPostgres) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	const q = `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`
	return scanProvider(r.db.QueryRowContext(ctx, q, id))
}

// List returns providers, optionally restricted to active rows.
func (r *ProviderPostgres) List(ctx context.Context, onlyActive bool) ([]model.Provider, error) {
	q := `SELECT ` + providerColumns + ` FROM providers`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY priority ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Provider, 0)
	for rows.Next() {
		p, err := scanProviderRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetHealth flips the health flag for a provider.
func (r *ProviderPostgres) SetHealth(ctx context.Context, id string, healthy bool) error {
	const q = `UPDATE providers SET healthy = $2, updated_at = now() WHERE id = $1`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row *sql.Row) (*model.Provider, error) {
	return scanProviderRows(row)
}

func scanProviderRows(row rowScanner) (*model.Provider, error) {
	var p model.Provider
	var currencies, regions string
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Active,
		&p.Healthy,
		&p.SuccessRate,
		&p.FeeRate,
		&p.FeeFixed,
		&p.LatencyMS,
		&currencies,
		&regions,
		&p.Priority,
		&p.Endpoint,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Currencies = splitList(currencies)
	p.Regions = splitList(regions)
	return &p, nil
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
