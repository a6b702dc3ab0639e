package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Compiler Prometheus metrics.
var (
	CompilationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "compilations_total",
			Help:      "Total number of compiled search requests",
		},
		[]string{"status"}, // "ok" / "invalid" / "error"
	)

	CompileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "compile_duration_seconds",
			Help:      "Search request compilation duration in seconds",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		},
	)

	SortClausesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sort_clauses_dropped_total",
			Help:      "Sort clauses skipped because their type is unknown",
		},
		[]string{"type"},
	)

	ProfileLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "profile_lookups_total",
			Help:      "Tenant profile lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	ProfileCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "profile_cache_total",
			Help:      "In-process profile cache lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerCompilerOnce sync.Once

// RegisterCompilerMetrics registers compiler metrics with the default registry.
// Safe to call more than once.
func RegisterCompilerMetrics() {
	registerCompilerOnce.Do(func() {
		prometheus.MustRegister(CompilationsTotal)
		prometheus.MustRegister(CompileDuration)
		prometheus.MustRegister(SortClausesDroppedTotal)
		prometheus.MustRegister(ProfileLookupsTotal)
		prometheus.MustRegister(ProfileCacheTotal)
	})
}
