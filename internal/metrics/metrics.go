// Package metrics exposes Prometheus instrumentation for the screening
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors exported by the service.
type Metrics struct {
	ScreeningsTotal   *prometheus.CounterVec
	MatchesFound      *prometheus.CounterVec
	ScreeningDuration prometheus.Histogram
	WatchlistEntries  prometheus.Gauge
	CacheHits         prometheus.Counter
}

// New registers the screening collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScreeningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kyc",
			Name:      "screenings_total",
			Help:      "Screenings performed, labeled by composite risk classification.",
		}, []string{"classification"}),
		MatchesFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kyc",
			Name:      "watchlist_matches_total",
			Help:      "Watchlist matches found, labeled by screening kind.",
		}, []string{"kind"}),
		ScreeningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kyc",
			Name:      "screening_duration_seconds",
			Help:      "End-to-end screening latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		WatchlistEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kyc",
			Name:      "watchlist_entries",
			Help:      "Entries in the active watchlist snapshot.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kyc",
			Name:      "screening_cache_hits_total",
			Help:      "Screenings served from the result cache.",
		}),
	}
	reg.MustRegister(
		m.ScreeningsTotal,
		m.MatchesFound,
		m.ScreeningDuration,
		m.WatchlistEntries,
		m.CacheHits,
	)
	return m
}
