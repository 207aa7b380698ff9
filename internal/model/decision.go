package model

import (
	"encoding/json"
	"time"
)

// Decision kinds.
const (
	DecisionPayment      = "payment"
	DecisionNotification = "notification"
)

// Attempt outcome constants.
const (
	OutcomeSuccess        = "success"
	OutcomeRetryableError = "retryable_error"
	OutcomeTerminalError  = "terminal_error"
)

// RouteAttempt records one dispatch attempt against one candidate.
type RouteAttempt struct {
	Candidate  string    `json:"candidate"`
	Retry      int       `json:"retry"` // 0 for the first attempt on a candidate
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// RouteDecision is the persisted audit record of one routing run:
// the ranked candidate order, the attempt trail, and the winner (if any).
type RouteDecision struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"` // payment, notification
	Request   json.RawMessage `json:"request"`
	Ranked    []string        `json:"ranked"` // candidate IDs in score order
	Attempts  []RouteAttempt  `json:"attempts"`
	Winner    string          `json:"winner,omitempty"`
	Succeeded bool            `json:"succeeded"`
	TracePath string          `json:"trace_path,omitempty"` // object storage key of the archived trace
	LatencyMS int64           `json:"latency_ms"`
	CreatedAt time.Time       `json:"created_at"`
}
