package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"routecore/internal/config"
	"routecore/internal/metrics"
	"routecore/internal/model"
	"routecore/internal/repository"
	"routecore/internal/search"
)

var (
	ErrQueryRequired   = errors.New("query is required")
	ErrContentRequired = errors.New("title and content are required")
	ErrSearchDegraded  = errors.New("both search legs failed")
)

// Search degradation modes recorded in metrics.
const (
	searchModeHybrid      = "hybrid"
	searchModeKeywordOnly = "keyword_only"
	searchModeVectorOnly  = "vector_only"
)

// IndexRequest is a request to index a document for hybrid search.
type IndexRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Source  string   `json:"source,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// SearchRequest is a hybrid search query.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// VectorIndex is the vector leg of hybrid search.
// Implementations: search.VectorStore.
type VectorIndex interface {
	Upsert(ctx context.Context, docID string, vector []float32) error
	Search(ctx context.Context, queryVec []float32, limit int) []search.Ranked
	Delete(ctx context.Context, docID string) error
}

// SearchService indexes documents and serves hybrid (keyword + vector) queries.
type SearchService interface {
	// Index embeds and stores a document. If the vector leg fails the
	// metadata row is rolled back so the index never drifts.
	Index(ctx context.Context, req IndexRequest) (*model.SearchDocument, error)

	// Search fuses the keyword and vector legs with RRF. A single failed
	// leg degrades the query; both legs failing is an error.
	Search(ctx context.Context, req SearchRequest) ([]search.Result, error)

	// Delete removes a document and its vector.
	Delete(ctx context.Context, id string) error
}

type searchService struct {
	cfg      config.SearchConfig
	docs     repository.SearchDocumentRepository
	embedder search.Embedder
	vectors  VectorIndex
	metrics  *metrics.Metrics
}

// NewSearchService constructs a SearchService.
func NewSearchService(
	cfg config.SearchConfig,
	docs repository.SearchDocumentRepository,
	embedder search.Embedder,
	vectors VectorIndex,
	m *metrics.Metrics,
) SearchService {
	return &searchService{
		cfg:      cfg,
		docs:     docs,
		embedder: embedder,
		vectors:  vectors,
		metrics:  m,
	}
}

func (s *searchService) Index(ctx context.Context, req IndexRequest) (*model.SearchDocument, error) {
	if req.Title == "" || req.Content == "" {
		return nil, ErrContentRequired
	}

	doc := &model.SearchDocument{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		Source:    req.Source,
		Tags:      req.Tags,
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	vec, err := s.embedder.EmbedDocument(ctx, req.Title+"\n"+req.Content)
	if err != nil {
		s.rollbackDoc(ctx, stored.ID, err)
		return nil, fmt.Errorf("embed document: %w", err)
	}
	if err := s.vectors.Upsert(ctx, stored.ID, vec); err != nil {
		s.rollbackDoc(ctx, stored.ID, err)
		return nil, fmt.Errorf("store vector: %w", err)
	}

	return stored, nil
}

func (s *searchService) rollbackDoc(ctx context.Context, id string, cause error) {
	if delErr := s.docs.Delete(ctx, id); delErr != nil {
		log.Printf("Warning: rollback of document %s failed: %v (after: %v)\n", id, delErr, cause)
	}
}

func (s *searchService) Search(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	if req.Query == "" {
		return nil, ErrQueryRequired
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	candidateLimit := s.cfg.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = 50
	}

	// Vector leg: a failed embed degrades to keyword-only.
	var vectorHits []search.Ranked
	queryVec, embedErr := s.embedder.EmbedQuery(ctx, req.Query)
	if embedErr != nil {
		log.Printf("Warning: query embedding failed: %v\n", embedErr)
	} else {
		vectorHits = s.vectors.Search(ctx, queryVec, candidateLimit)
	}

	// Keyword leg: a failure degrades to vector-only.
	var keywordHits []search.Ranked
	titles := make(map[string]string)
	kw, kwErr := s.docs.KeywordSearch(ctx, req.Query, candidateLimit)
	if kwErr != nil {
		log.Printf("Warning: keyword search failed: %v\n", kwErr)
	} else {
		for _, h := range kw {
			keywordHits = append(keywordHits, search.Ranked{ID: h.ID, Score: h.Score})
			titles[h.ID] = h.Title
		}
	}

	switch {
	case embedErr != nil && kwErr != nil:
		return nil, fmt.Errorf("%w: embed: %v; keyword: %v", ErrSearchDegraded, embedErr, kwErr)
	case embedErr != nil:
		s.metrics.RecordSearch(searchModeKeywordOnly)
	case kwErr != nil:
		s.metrics.RecordSearch(searchModeVectorOnly)
	default:
		s.metrics.RecordSearch(searchModeHybrid)
	}

	fused := search.Fuse([][]search.Ranked{vectorHits, keywordHits}, s.cfg.FusionK)
	fused = search.Threshold(fused, s.cfg.ScoreThreshold)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	return s.hydrate(ctx, fused)
}

// hydrate attaches document metadata to fused IDs, preserving fusion order.
func (s *searchService) hydrate(ctx context.Context, fused []search.Ranked) ([]search.Result, error) {
	if len(fused) == 0 {
		return []search.Result{}, nil
	}
	ids := make([]string, len(fused))
	for i, r := range fused {
		ids[i] = r.ID
	}
	docs, err := s.docs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}
	byID := make(map[string]model.SearchDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	results := make([]search.Result, 0, len(fused))
	for _, r := range fused {
		doc, ok := byID[r.ID]
		if !ok {
			// Vector row without a metadata row; skip rather than serve a ghost.
			continue
		}
		results = append(results, search.Result{
			ID:      doc.ID,
			Title:   doc.Title,
			Content: doc.Content,
			Source:  doc.Source,
			Tags:    doc.Tags,
			Score:   r.Score,
		})
	}
	return results, nil
}

func (s *searchService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.vectors.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}
