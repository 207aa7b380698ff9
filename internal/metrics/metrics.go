package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the routing and search counters registered with Prometheus.
// A nil *Metrics is safe to use; all record methods become no-ops, which
// keeps service tests free of registry setup.
type Metrics struct {
	routeAttempts  *prometheus.CounterVec
	routeFallbacks *prometheus.CounterVec
	searchQueries  *prometheus.CounterVec
}

// New creates the routing metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		routeAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "route_attempts_total",
				Help: "Total dispatch attempts by the routing chain.",
			},
			[]string{"kind", "outcome"},
		),
		routeFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "route_fallbacks_total",
				Help: "Routing runs that did not succeed on the first-ranked candidate.",
			},
			[]string{"kind"},
		),
		searchQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Hybrid search queries by degradation mode.",
			},
			[]string{"mode"}, // hybrid, keyword_only, vector_only
		),
	}

	for _, c := range []*prometheus.CounterVec{m.routeAttempts, m.routeFallbacks, m.searchQueries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordAttempt counts one dispatch attempt outcome.
func (m *Metrics) RecordAttempt(kind, outcome string) {
	if m == nil {
		return
	}
	m.routeAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordFallback counts a routing run that needed more than one candidate.
func (m *Metrics) RecordFallback(kind string) {
	if m == nil {
		return
	}
	m.routeFallbacks.WithLabelValues(kind).Inc()
}

// RecordSearch counts a search query by the mode it actually ran in.
func (m *Metrics) RecordSearch(mode string) {
	if m == nil {
		return
	}
	m.searchQueries.WithLabelValues(mode).Inc()
}
