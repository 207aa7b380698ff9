package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"routecore/internal/config"
	"routecore/internal/metrics"
	"routecore/internal/model"
	"routecore/internal/repository"
	"routecore/internal/routing"
	"routecore/internal/storage"
)

var (
	ErrRecipientRequired  = errors.New("recipient is required")
	ErrBodyRequired       = errors.New("body is required")
	ErrNoEligibleChannels = errors.New("no channel can deliver this notification")
	ErrDeliveryFailed     = errors.New("all channels failed")
)

// NotificationRequest describes one notification to deliver.
type NotificationRequest struct {
	Recipient string   `json:"recipient"`
	Urgency   string   `json:"urgency,omitempty"` // low, normal, high, critical
	Subject   string   `json:"subject,omitempty"`
	Body      string   `json:"body"`
	OptOut    []string `json:"opt_out,omitempty"`  // channel kinds the recipient declined
	Timezone  string   `json:"timezone,omitempty"` // IANA name for quiet-hour evaluation
}

// NotificationService routes a notification to the best delivery channel
// with the same scoring core and fallback chain as payment routing.
type NotificationService interface {
	// Notify selects and orders channels, delivers down the chain, and
	// returns the persisted decision. The decision is persisted even when
	// every channel fails; in that case the error is ErrDeliveryFailed.
	Notify(ctx context.Context, req NotificationRequest) (*model.RouteDecision, error)
}

type notificationService struct {
	channels   repository.ChannelRepository
	decisions  repository.DecisionRepository
	archive    storage.Storage
	dispatcher routing.Dispatcher
	scorer     *routing.Scorer
	chain      routing.Chain
	quiet      config.NotifyConfig
	metrics    *metrics.Metrics
	now        func() time.Time // injected for quiet-hour tests
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(
	routerCfg config.RouterConfig,
	notifyCfg config.NotifyConfig,
	channels repository.ChannelRepository,
	decisions repository.DecisionRepository,
	archive storage.Storage,
	dispatcher routing.Dispatcher,
	m *metrics.Metrics,
) (NotificationService, error) {
	scorer, err := routing.NewScorer(routing.Weights{
		SuccessRate: routerCfg.WeightSuccessRate,
		Cost:        routerCfg.WeightCost,
		Latency:     routerCfg.WeightLatency,
		Health:      routerCfg.WeightHealth,
	}, routing.WithExcludeUnhealthy(routerCfg.ExcludeUnhealthy))
	if err != nil {
		return nil, fmt.Errorf("routing scorer: %w", err)
	}

	return &notificationService{
		channels:   channels,
		decisions:  decisions,
		archive:    archive,
		dispatcher: dispatcher,
		scorer:     scorer,
		chain: routing.Chain{
			MaxAttempts:      routerCfg.MaxAttempts,
			RetriesPerTarget: routerCfg.RetriesPerTarget,
			RetryBackoff:     time.Duration(routerCfg.RetryBackoffMS) * time.Millisecond,
		},
		quiet:   notifyCfg,
		metrics: m,
		now:     time.Now,
	}, nil
}

func (s *notificationService) Notify(ctx context.Context, req NotificationRequest) (*model.RouteDecision, error) {
	if req.Recipient == "" {
		return nil, ErrRecipientRequired
	}
	if req.Body == "" {
		return nil, ErrBodyRequired
	}
	urgency := model.ParseUrgency(req.Urgency)

	channels, err := s.channels.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	optOut := make(map[string]bool, len(req.OptOut))
	for _, kind := range req.OptOut {
		optOut[kind] = true
	}
	quietNow := s.inQuietHours(req.Timezone)

	candidates := make([]routing.Candidate, 0, len(channels))
	for i := range channels {
		c := &channels[i]
		if optOut[c.Kind] {
			continue
		}
		if urgency < c.MinUrgency {
			continue
		}
		// Quiet hours silence intrusive channels unless the send is urgent.
		if quietNow && c.Intrusive && urgency < model.UrgencyHigh {
			continue
		}
		candidates = append(candidates, routing.Candidate{
			ID:          c.ID,
			Name:        c.Name,
			SuccessRate: c.SuccessRate,
			Cost:        c.CostPerMsg,
			LatencyMS:   c.LatencyMS,
			Healthy:     c.Healthy,
			Priority:    c.Priority,
			Endpoint:    c.Endpoint,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleChannels
	}

	ranked, err := s.scorer.Rank(candidates)
	if err != nil {
		if errors.Is(err, routing.ErrNoCandidates) {
			return nil, ErrNoEligibleChannels
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

	decision := buildDecision(model.DecisionNotification, payload, ranked, res, start)
	recordChainMetrics(s.metrics, model.DecisionNotification, ranked, res)

	decision.TracePath = archiveTrace(ctx, s.archive, decision)

	stored, err := s.decisions.Create(ctx, decision)
	if err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}

	if chainErr != nil {
		return stored, ErrDeliveryFailed
	}
	return stored, nil
}

// inQuietHours reports whether the recipient-local time falls inside the
// configured quiet window. The window may wrap midnight (e.g. 22 to 8).
// An unknown timezone falls back to UTC.
func (s *notificationService) inQuietHours(tz string) bool {
	if s.quiet.QuietHoursStart == s.quiet.QuietHoursEnd {
		return false
	}
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	hour := s.now().In(loc).Hour()

	start, end := s.quiet.QuietHoursStart, s.quiet.QuietHoursEnd
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
