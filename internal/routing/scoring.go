package routing

import (
	"fmt"
	"sort"
)

// Weights holds the relative importance of each scoring criterion.
// They are normalized to sum to 1 at scorer construction, so callers can
// express them in any convenient scale.
type Weights struct {
	SuccessRate float64
	Cost        float64
	Latency     float64
	Health      float64
}

// Scorer ranks candidates by a weighted multi-criteria score in [0,1].
//
// Per-criterion scores:
//   - success rate is used as-is (already [0,1])
//   - cost and latency are min-max normalized across the candidate set and
//     inverted, so the cheapest/fastest candidate scores 1
//   - health is binary
//
// When all candidates share the same cost (or latency) the criterion is
// non-discriminating and every candidate scores 1 on it.
type Scorer struct {
	weights          Weights
	excludeUnhealthy bool
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithExcludeUnhealthy drops unhealthy candidates instead of floor-scoring them.
func WithExcludeUnhealthy(exclude bool) ScorerOption {
	return func(s *Scorer) { s.excludeUnhealthy = exclude }
}

// NewScorer creates a scorer with normalized weights.
// At least one weight must be positive; negative weights are rejected.
func NewScorer(w Weights, opts ...ScorerOption) (*Scorer, error) {
	if w.SuccessRate < 0 || w.Cost < 0 || w.Latency < 0 || w.Health < 0 {
		return nil, fmt.Errorf("weights must be non-negative: %+v", w)
	}
	sum := w.SuccessRate + w.Cost + w.Latency + w.Health
	if sum <= 0 {
		return nil, fmt.Errorf("at least one weight must be positive")
	}
	s := &Scorer{
		weights: Weights{
			SuccessRate: w.SuccessRate / sum,
			Cost:        w.Cost / sum,
			Latency:     w.Latency / sum,
			Health:      w.Health / sum,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rank scores all candidates and returns them in descending score order.
// Ties break on Priority (lower first), then ID, so rankings are
// deterministic for equal inputs.
func (s *Scorer) Rank(candidates []Candidate) ([]Scored, error) {
	if s.excludeUnhealthy {
		healthy := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.Healthy {
				healthy = append(healthy, c)
			}
		}
		candidates = healthy
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	costMin, costMax := minMax(candidates, func(c Candidate) float64 { return c.Cost })
	latMin, latMax := minMax(candidates, func(c Candidate) float64 { return c.LatencyMS })

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score := s.weights.SuccessRate * clamp01(c.SuccessRate)
		score += s.weights.Cost * inverted(c.Cost, costMin, costMax)
		score += s.weights.Latency * inverted(c.LatencyMS, latMin, latMax)
		if c.Healthy {
			score += s.weights.Health
		}
		scored = append(scored, Scored{Candidate: c, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Priority != scored[j].Priority {
			return scored[i].Priority < scored[j].Priority
		}
		return scored[i].ID < scored[j].ID
	})

	return scored, nil
}

// inverted maps v in [min,max] to a score in [0,1] where min scores 1.
// A degenerate range (all candidates equal) scores 1 for everyone.
func inverted(v, min, max float64) float64 {
	if max <= min {
		return 1
	}
	return (max - v) / (max - min)
}

func minMax(candidates []Candidate, f func(Candidate) float64) (float64, float64) {
	min, max := f(candidates[0]), f(candidates[0])
	for _, c := range candidates[1:] {
		v := f(c)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
