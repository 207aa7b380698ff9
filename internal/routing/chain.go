package routing

import (
	"context"
	"time"

	"routecore/internal/model"
)

// Chain walks a ranked candidate list, dispatching until one succeeds.
// Retryable failures are retried in place with linear backoff up to
// RetriesPerTarget extra attempts; terminal failures fail over to the next
// candidate immediately. MaxAttempts bounds total dispatches across the chain.
type Chain struct {
	MaxAttempts      int
	RetriesPerTarget int
	RetryBackoff     time.Duration
}

// ChainResult is the outcome of one chain execution: the winning candidate
// (nil when exhausted) and the full attempt trail.
type ChainResult struct {
	Winner   *Scored
	Attempts []model.RouteAttempt
}

// Execute runs the fallback chain over ranked candidates.
// It returns ErrAllCandidatesFailed when no candidate succeeds; the attempt
// trail is returned in either case so callers can persist it.
func (ch Chain) Execute(ctx context.Context, ranked []Scored, payload []byte, d Dispatcher) (*ChainResult, error) {
	if len(ranked) == 0 {
		return &ChainResult{}, ErrNoCandidates
	}

	maxAttempts := ch.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = len(ranked)
	}

	res := &ChainResult{}
	total := 0

	for i := range ranked {
		cand := ranked[i]

		for retry := 0; retry <= ch.RetriesPerTarget; retry++ {
			if total >= maxAttempts {
				return res, ErrAllCandidatesFailed
			}
			if retry > 0 && ch.RetryBackoff > 0 {
				select {
				case <-time.After(time.Duration(retry) * ch.RetryBackoff):
				case <-ctx.Done():
					return res, ctx.Err()
				}
			}

			start := time.Now()
			err := d.Dispatch(ctx, cand.Candidate, payload)
			total++

			attempt := model.RouteAttempt{
				Candidate:  cand.ID,
				Retry:      retry,
				StartedAt:  start.UTC(),
				DurationMS: time.Since(start).Milliseconds(),
			}

			if err == nil {
				attempt.Outcome = model.OutcomeSuccess
				res.Attempts = append(res.Attempts, attempt)
				res.Winner = &cand
				return res, nil
			}

			if ctx.Err() != nil {
				attempt.Outcome = model.OutcomeTerminalError
				attempt.Error = ctx.Err().Error()
				res.Attempts = append(res.Attempts, attempt)
				return res, ctx.Err()
			}

			attempt.Error = err.Error()
			if IsRetryable(err) {
				attempt.Outcome = model.OutcomeRetryableError
				res.Attempts = append(res.Attempts, attempt)
				continue
			}

			// Terminal: fail over to the next candidate.
			attempt.Outcome = model.OutcomeTerminalError
			res.Attempts = append(res.Attempts, attempt)
			break
		}
	}

	return res, ErrAllCandidatesFailed
}
