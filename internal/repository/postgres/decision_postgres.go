package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"routecore/internal/model"
	"routecore/internal/repository"
)

// DecisionPostgres is a PostgreSQL implementation of repository.DecisionRepository.
// Ranked order and attempt trails are stored as JSONB.
type DecisionPostgres struct {
	db *sql.DB
}

// NewDecisionPostgres creates a new DecisionPostgres repository.
func NewDecisionPostgres(db *sql.DB) *DecisionPostgres {
	return &DecisionPostgres{db: db}
}

var _ repository.DecisionRepository = (*DecisionPostgres)(nil)

const decisionColumns = `id, kind, request, ranked, attempts, winner, succeeded, trace_path, latency_ms, created_at`

// Create inserts a decision row and returns the stored record.
func (r *DecisionPostgres) Create(ctx context.Context, d *model.RouteDecision) (*model.RouteDecision, error) {
	ranked, err := json.Marshal(d.Ranked)
	if err != nil {
		return nil, fmt.Errorf("marshal ranked: %w", err)
	}
	attempts, err := json.Marshal(d.Attempts)
	if err != nil {
		return nil, fmt.Errorf("marshal attempts: %w", err)
	}

	const q = `
		INSERT INTO route_decisions (id, kind, request, ranked, attempts, winner, succeeded, trace_path, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + decisionColumns
	row := r.db.QueryRowContext(ctx, q,
		d.ID,
		d.Kind,
		[]byte(d.Request),
		ranked,
		attempts,
		d.Winner,
		d.Succeeded,
		d.TracePath,
		d.LatencyMS,
		d.CreatedAt,
	)
	return scanDecision(row)
}

// FindByID fetches a single decision by its ID.
func (r *DecisionPostgres) FindByID(ctx context.Context, id string) (*model.RouteDecision, error) {
	const q = `SELECT ` + decisionColumns + ` FROM route_decisions WHERE id = $1`
	return scanDecision(r.db.QueryRowContext(ctx, q, id))
}

// List returns decisions newest first using LIMIT/OFFSET pagination and a total count.
func (r *DecisionPostgres) List(ctx context.Context, kind string, pq repository.PageQuery) (*repository.PageResult[model.RouteDecision], error) {
	var total int
	if kind != "" {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_decisions WHERE kind = $1`, kind).Scan(&total); err != nil {
			return nil, err
		}
	} else {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_decisions`).Scan(&total); err != nil {
			return nil, err
		}
	}

	var rows *sql.Rows
	var err error
	if kind != "" {
		const qList = `
			SELECT ` + decisionColumns + `
			FROM route_decisions
			WHERE kind = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`
		rows, err = r.db.QueryContext(ctx, qList, kind, pq.Limit, pq.Offset)
	} else {
		const qList = `
			SELECT ` + decisionColumns + `
			FROM route_decisions
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2
		`
		rows, err = r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.RouteDecision, 0)
	for rows.Next() {
		d, err := scanDecisionRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.RouteDecision]{Items: items, Total: total}, nil
}

func scanDecision(row *sql.Row) (*model.RouteDecision, error) {
	return scanDecisionRows(row)
}

func scanDecisionRows(row rowScanner) (*model.RouteDecision, error) {
	var d model.RouteDecision
	var request, ranked, attempts []byte
	if err := row.Scan(
		&d.ID,
		&d.Kind,
		&request,
		&ranked,
		&attempts,
		&d.Winner,
		&d.Succeeded,
		&d.TracePath,
		&d.LatencyMS,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Request = json.RawMessage(request)
	if err := json.Unmarshal(ranked, &d.Ranked); err != nil {
		return nil, fmt.Errorf("unmarshal ranked: %w", err)
	}
	if err := json.Unmarshal(attempts, &d.Attempts); err != nil {
		return nil, fmt.Errorf("unmarshal attempts: %w", err)
	}
	return &d, nil
}
