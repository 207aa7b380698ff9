package model

import "time"

// Notification urgency levels, ordered.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyHigh     = 2
	UrgencyCritical = 3
)

// Channel kind constants.
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelPush    = "push"
	ChannelWebhook = "webhook"
)

// Channel represents a notification delivery channel the router can select.
type Channel struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // email, sms, push, webhook
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	Healthy     bool      `json:"healthy"`
	SuccessRate float64   `json:"success_rate"`
	CostPerMsg  float64   `json:"cost_per_msg"` // minor units
	LatencyMS   float64   `json:"latency_ms"`
	MinUrgency  int       `json:"min_urgency"` // channel only fires at or above this urgency
	Intrusive   bool      `json:"intrusive"`   // suppressed during quiet hours for non-urgent sends
	Priority    int       `json:"priority"`
	Endpoint    string    `json:"endpoint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParseUrgency maps an urgency name to its level. Unknown names map to normal.
func ParseUrgency(s string) int {
	switch s {
	case "low":
		return UrgencyLow
	case "high":
		return UrgencyHigh
	case "critical":
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}
