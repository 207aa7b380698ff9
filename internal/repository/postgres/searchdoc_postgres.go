package postgres

import (
	"context"
	"database/sql"

	"routecore/internal/model"
	"routecore/internal/repository"
)

// SearchDocumentPostgres is a PostgreSQL implementation of
// repository.SearchDocumentRepository. The keyword leg uses the generated
// tsvector column and websearch_to_tsquery so user queries need no escaping.
type SearchDocumentPostgres struct {
	db *sql.DB
}

// NewSearchDocumentPostgres creates a new SearchDocumentPostgres repository.
func NewSearchDocumentPostgres(db *sql.DB) *SearchDocumentPostgres {
	return &SearchDocumentPostgres{db: db}
}

var _ repository.SearchDocumentRepository = (*SearchDocumentPostgres)(nil)

const searchDocColumns = `id, title, content, source, array_to_string(tags, ','), created_at`

// Create inserts a document row and returns the stored record.
func (r *SearchDocumentPostgres) Create(ctx context.Context, doc *model.SearchDocument) (*model.SearchDocument, error) {
	const q = `
		INSERT INTO search_documents (id, title, content, source, tags, created_at)
		VALUES ($1, $2, $3, $4, string_to_array($5, ','), $6)
		RETURNING ` + searchDocColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Source,
		joinList(doc.Tags),
		doc.CreatedAt,
	)
	return scanSearchDoc(row)
}

// FindByID fetches a single document by its ID.
func (r *SearchDocumentPostgres) FindByID(ctx context.Context, id string) (*model.SearchDocument, error) {
	const q = `SELECT ` + searchDocColumns + ` FROM search_documents WHERE id = $1`
	return scanSearchDoc(r.db.QueryRowContext(ctx, q, id))
}

// FindByIDs returns the documents matching the given IDs. Missing IDs are skipped.
func (r *SearchDocumentPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.SearchDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// string_to_array keeps this a single parameterized query for any ID count.
	const q = `SELECT ` + searchDocColumns + ` FROM search_documents WHERE id = ANY(string_to_array($1, ',')::uuid[])`
	rows, err := r.db.QueryContext(ctx, q, joinList(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SearchDocument, 0, len(ids))
	for rows.Next() {
		d, err := scanSearchDocRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// KeywordSearch runs full-text search over the generated tsvector column.
func (r *SearchDocumentPostgres) KeywordSearch(ctx context.Context, query string, limit int) ([]model.KeywordHit, error) {
	const q = `
		SELECT id, title, ts_rank(tsv, websearch_to_tsquery('english', $1)) AS rank
		FROM search_documents
		WHERE tsv @@ websearch_to_tsquery('english', $1)
		ORDER BY rank DESC, id ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]model.KeywordHit, 0)
	for rows.Next() {
		var h model.KeywordHit
		if err := rows.Scan(&h.ID, &h.Title, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// Delete removes a document by ID, returning sql.ErrNoRows when it does not
// exist. The search_vectors row goes with it via ON DELETE CASCADE.
func (r *SearchDocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM search_documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
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

func scanSearchDoc(row *sql.Row) (*model.SearchDocument, error) {
	return scanSearchDocRows(row)
}

func scanSearchDocRows(row rowScanner) (*model.SearchDocument, error) {
	var d model.SearchDocument
	var tags string
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Content,
		&d.Source,
		&tags,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Tags = splitList(tags)
	return &d, nil
}
