package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered on the default registry by promauto. Hosts that
// expose /metrics pick them up without further wiring.

var (
	// GridBuildDuration measures grid construction (hashing, sorting and
	// bucketing), labeled by backend and whether a permutation hint was used.
	GridBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "kektorgrid_build_duration_seconds",
			Help: "Duration of spatial grid construction in seconds",
			// 10µs (a few hundred points) up to ~2.6s (tens of millions)
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"backend", "hinted"},
	)

	// GridBuckets tracks the bucket count of the most recently built grid.
	GridBuckets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kektorgrid_buckets",
			Help: "Number of occupied cells in the most recently built grid",
		},
		[]string{"backend"},
	)

	// GridPoints tracks the point count of the most recently built grid.
	GridPoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kektorgrid_points",
			Help: "Number of points in the most recently built grid",
		},
		[]string{"backend"},
	)

	// GridRejected counts constructions aborted by invalid or degenerate
	// configurations.
	GridRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgrid_rejected_total",
			Help: "Total number of rejected grid constructions",
		},
		[]string{"reason"},
	)

	// PairsEmitted counts point pairs accepted by pair enumeration.
	PairsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgrid_pairs_total",
			Help: "Total number of point pairs emitted by pair enumeration",
		},
		[]string{"backend"},
	)

	// RangeQueries counts box queries, labeled by variant (grid or naive).
	RangeQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgrid_range_queries_total",
			Help: "Total number of box queries",
		},
		[]string{"backend", "variant"},
	)
)
