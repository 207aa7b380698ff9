package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"routecore/internal/model"
	"routecore/internal/repository"
	"routecore/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrDecisionNotFound = errors.New("decision not found")
	ErrNoTrace          = errors.New("decision has no archived trace")
)

// DecisionListResult is the service-level DTO for paginated decisions.
type DecisionListResult struct {
	Items []model.RouteDecision `json:"data"`
	Total int                   `json:"total"`
}

// DecisionService exposes the routing decision audit log.
type DecisionService interface {
	// List returns decisions using limit/offset and a total count.
	// kind filters to payment or notification decisions; empty means both.
	List(ctx context.Context, kind string, limit, offset int) (*DecisionListResult, error)

	// Get returns a single decision by its ID.
	Get(ctx context.Context, id string) (*model.RouteDecision, error)

	// TraceURL returns a presigned download URL for the archived trace.
	TraceURL(ctx context.Context, id string) (string, error)
}

type decisionService struct {
	repo    repository.DecisionRepository
	archive storage.Storage
}

// NewDecisionService constructs a DecisionService.
func NewDecisionService(repo repository.DecisionRepository, archive storage.Storage) DecisionService {
	return &decisionService{repo: repo, archive: archive}
}

func (s *decisionService) List(ctx context.Context, kind string, limit, offset int) (*DecisionListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, kind, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DecisionListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *decisionService) Get(ctx context.Context, id string) (*model.RouteDecision, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDecisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *decisionService) TraceURL(ctx context.Context, id string) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if d.TracePath == "" {
		return "", ErrNoTrace
	}
	return s.archive.PresignGet(ctx, d.TracePath, 15*time.Minute)
}
