package routing

import (
	"context"
	"errors"
)

var (
	// ErrNoCandidates is returned when the candidate set is empty after filtering.
	ErrNoCandidates = errors.New("no eligible candidates")
	// ErrAllCandidatesFailed is returned when the fallback chain is exhausted.
	ErrAllCandidatesFailed = errors.New("all candidates failed")
)

// Candidate is one target the router can pick: a payment provider, a
// notification channel, or anything else with comparable health and cost
// metrics. Payload carries the domain object through to the dispatcher.
type Candidate struct {
	ID          string
	Name        string
	SuccessRate float64 // [0,1]
	Cost        float64 // minor units; lower is better
	LatencyMS   float64 // lower is better
	Healthy     bool
	Priority    int    // tie-break after score; lower wins
	Endpoint    string // dispatch target URL, if the dispatcher needs one
	Payload     any
}

// Scored pairs a candidate with its weighted score.
type Scored struct {
	Candidate
	Score float64
}

// Dispatcher executes one attempt against a candidate.
// Implementations classify failures by returning *DispatchError; any other
// error is treated as terminal.
type Dispatcher interface {
	Dispatch(ctx context.Context, c Candidate, payload []byte) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, c Candidate, payload []byte) error

func (f DispatcherFunc) Dispatch(ctx context.Context, c Candidate, payload []byte) error {
	return f(ctx, c, payload)
}

// DispatchError wraps a dispatch failure with its retry classification.
// Network errors and 5xx responses are retryable; rejections are not.
type DispatchError struct {
	Err       error
	Retryable bool
}

func (e *DispatchError) Error() string {
	return e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err allows another attempt on the same candidate.
func IsRetryable(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
