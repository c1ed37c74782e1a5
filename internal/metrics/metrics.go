package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the resolver-side Prometheus collectors.
type Metrics struct {
	ResolveTotal     *prometheus.CounterVec
	ProviderFailures *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ResolveTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_resolve_total",
				Help: "Price resolutions by universe and outcome (live, cached, stale, static, unavailable, unsupported)",
			},
			[]string{"universe", "outcome"},
		),
		ProviderFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_provider_failures_total",
				Help: "Failed upstream adapter attempts by provider",
			},
			[]string{"provider"},
		),
		CacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_cache_lookups_total",
				Help: "Cache lookups by cache tier and freshness state",
			},
			[]string{"cache", "state"},
		),
	}
}

// The record helpers tolerate a nil receiver so wiring metrics stays optional.

func (m *Metrics) RecordResolve(universe, outcome string) {
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(universe, outcome).Inc()
}

func (m *Metrics) RecordProviderFailure(name string) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) RecordCacheLookup(cache, state string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(cache, state).Inc()
}
