package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"routecore/internal/config"
	"routecore/internal/metrics"
	"routecore/internal/model"
	"routecore/internal/repository"
	"routecore/internal/routing"
	"routecore/internal/storage"
)

var (
	ErrAmountRequired      = errors.New("amount must be positive")
	ErrCurrencyRequired    = errors.New("currency is required")
	ErrNoEligibleProviders = errors.New("no provider supports this currency and region")
	ErrRoutingFailed       = errors.New("all providers failed")
)

// PaymentRequest describes one payment to route.
type PaymentRequest struct {
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Region    string `json:"region,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// RoutingService picks the best payment provider for a request and executes
// the fallback chain, persisting the decision trail.
type RoutingService interface {
	// RoutePayment ranks eligible providers, dispatches down the chain, and
	// returns the persisted decision. The decision is persisted even when
	// every provider fails; in that case the error is ErrRoutingFailed.
	RoutePayment(ctx context.Context, req PaymentRequest) (*model.RouteDecision, error)

	// ListProviders returns the provider catalog.
	ListProviders(ctx context.Context) ([]model.Provider, error)
}

type routingService struct {
	providers  repository.ProviderRepository
	decisions  repository.DecisionRepository
	archive    storage.Storage
	dispatcher routing.Dispatcher
	scorer     *routing.Scorer
	chain      routing.Chain
	metrics    *metrics.Metrics
}

// NewRoutingService constructs a RoutingService from the router config.
func NewRoutingService(
	cfg config.RouterConfig,
	providers repository.ProviderRepository,
	decisions repository.DecisionRepository,
	archive storage.Storage,
	dispatcher routing.Dispatcher,
	m *metrics.Metrics,
) (RoutingService, error) {
	scorer, err := routing.NewScorer(routing.Weights{
		SuccessRate: cfg.WeightSuccessRate,
		Cost:        cfg.WeightCost,
		Latency:     cfg.WeightLatency,
		Health:      cfg.WeightHealth,
	}, routing.WithExcludeUnhealthy(cfg.ExcludeUnhealthy))
	if err != nil {
		return nil, fmt.Errorf("routing scorer: %w", err)
	}

	return &routingService{
		providers:  providers,
		decisions:  decisions,
		archive:    archive,
		dispatcher: dispatcher,
		scorer:     scorer,
		chain: routing.Chain{
			MaxAttempts:      cfg.MaxAttempts,
			RetriesPerTarget: cfg.RetriesPerTarget,
			RetryBackoff:     time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
		},
		metrics: m,
	}, nil
}

func (s *routingService) RoutePayment(ctx context.Context, req PaymentRequest) (*model.RouteDecision, error) {
	if req.Amount <= 0 {
		return nil, ErrAmountRequired
	}
	if req.Currency == "" {
		return nil, ErrCurrencyRequired
	}

	providers, err := s.providers.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	candidates := make([]routing.Candidate, 0, len(providers))
	for i := range providers {
		p := &providers[i]
		if !p.SupportsCurrency(req.Currency) || !p.SupportsRegion(req.Region) {
			continue
		}
		candidates = append(candidates, routing.Candidate{
			ID:          p.ID,
			Name:        p.Name,
			SuccessRate: p.SuccessRate,
			Cost:        p.EffectiveCost(req.Amount),
			LatencyMS:   p.LatencyMS,
			Healthy:     p.Healthy,
			Priority:    p.Priority,
			Endpoint:    p.Endpoint,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleProviders
	}

	ranked, err := s.scorer.Rank(candidates)
	if err != nil {
		if errors.Is(err, routing.ErrNoCandidates) {
			return nil, ErrNoEligibleProviders
		}
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	res, chainErr := s.chain.Execute(ctx, ranked, payload, s.dispatcher)
	if chainErr != nil && !errors.Is(chainErr, routing.ErrAllCandidatesFailed) {
		return nil, chainErr
	}

	decision := buildDecision(model.DecisionPayment, payload, ranked, res, start)
	recordChainMetrics(s.metrics, model.DecisionPayment, ranked, res)

	decision.TracePath = archiveTrace(ctx, s.archive, decision)

	stored, err := s.decisions.Create(ctx, decision)
	if err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}

	if chainErr != nil {
		return stored, ErrRoutingFailed
	}
	return stored, nil
}

func (s *routingService) ListProviders(ctx context.Context) ([]model.Provider, error) {
	return s.providers.List(ctx, false)
}

// buildDecision assembles the audit record for one chain execution.
func buildDecision(kind string, request []byte, ranked []routing.Scored, res *routing.ChainResult, start time.Time) *model.RouteDecision {
	rankedIDs := make([]string, len(ranked))
	for i, r := range ranked {
		rankedIDs[i] = r.ID
	}
	d := &model.RouteDecision{
		ID:        uuid.NewString(),
		Kind:      kind,
		Request:   json.RawMessage(request),
		Ranked:    rankedIDs,
		Attempts:  res.Attempts,
		LatencyMS: time.Since(start).Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	if res.Winner != nil {
		d.Winner = res.Winner.ID
		d.Succeeded = true
	}
	return d
}

func recordChainMetrics(m *metrics.Metrics, kind string, ranked []routing.Scored, res *routing.ChainResult) {
	for _, a := range res.Attempts {
		m.RecordAttempt(kind, a.Outcome)
	}
	if res.Winner == nil || (len(ranked) > 0 && res.Winner.ID != ranked[0].ID) {
		m.RecordFallback(kind)
	}
}

// archiveTrace writes the full decision JSON to object storage. Archive
// failures must not fail the routing request, so they are only logged.
func archiveTrace(ctx context.Context, store storage.Storage, d *model.RouteDecision) string {
	if store == nil {
		return ""
	}
	body, err := json.Marshal(d)
	if err != nil {
		log.Printf("Warning: marshal decision trace failed: %v\n", err)
		return ""
	}
	key := "decisions/" + d.ID + ".json"
	_, err = store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata:    map[string]string{"decision-kind": d.Kind},
	})
	if err != nil {
		log.Printf("Warning: archive decision trace failed: %v\n", err)
		return ""
	}
	return key
}
