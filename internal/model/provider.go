package model

import "time"

// Provider represents a payment provider that can be selected by the router.
// This is a pure domain model with no database-specific dependencies or tags.
// Metrics (success rate, fees, latency) feed the weighted scoring core.
type Provider struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	Healthy     bool      `json:"healthy"`
	SuccessRate float64   `json:"success_rate"` // rolling ratio in [0,1]
	FeeRate     float64   `json:"fee_rate"`     // fraction of amount, e.g. 0.029
	FeeFixed    int64     `json:"fee_fixed"`    // minor units per transaction
	LatencyMS   float64   `json:"latency_ms"`   // rolling p50
	Currencies  []string  `json:"currencies"`
	Regions     []string  `json:"regions"`
	Priority    int       `json:"priority"` // tie-break; lower wins
	Endpoint    string    `json:"endpoint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupportsCurrency reports whether the provider accepts the given currency.
func (p *Provider) SupportsCurrency(currency string) bool {
	for _, c := range p.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// SupportsRegion reports whether the provider operates in the given region.
// An empty region list means the provider is global.
func (p *Provider) SupportsRegion(region string) bool {
	if len(p.Regions) == 0 {
		return true
	}
	for _, r := range p.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// EffectiveCost returns the total fee in minor units for a given amount.
func (p *Provider) EffectiveCost(amount int64) float64 {
	return float64(amount)*p.FeeRate + float64(p.FeeFixed)
}
