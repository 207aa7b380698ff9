package repository

import (
	"context"

	"routecore/internal/model"
)

// SearchDocumentRepository defines data access for indexed documents,
// including the full-text leg of hybrid search.
type SearchDocumentRepository interface {
	// Create inserts a document row and returns the stored record.
	Create(ctx context.Context, doc *model.SearchDocument) (*model.SearchDocument, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.SearchDocument, error)

	// FindByIDs returns the documents matching the given IDs, for hydrating
	// fused results. Missing IDs are silently skipped.
	FindByIDs(ctx context.Context, ids []string) ([]model.SearchDocument, error)

	// KeywordSearch runs full-text search ranked by ts_rank, best first.
	KeywordSearch(ctx context.Context, query string, limit int) ([]model.KeywordHit, error)

	// Delete removes a document by ID. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}
