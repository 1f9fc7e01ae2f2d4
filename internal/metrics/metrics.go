package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RasterFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speiwatch_raster_fetches_total",
			Help: "Total raster download attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	RasterFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speiwatch_raster_fetch_latency_seconds",
			Help:    "Raster download latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	RollupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speiwatch_rollups_total",
			Help: "Total regional rollups computed",
		},
		[]string{"scale"},
	)

	RollupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speiwatch_rollup_duration_seconds",
			Help:    "Regional rollup computation time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scale"},
	)

	CellsClassified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speiwatch_cells_classified_total",
			Help: "Total valid raster cells classified into severity buckets",
		},
	)

	ActiveWarnings = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "speiwatch_active_warnings",
			Help: "Currently active drought warnings by level",
		},
		[]string{"level"},
	)

	AdvisoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speiwatch_advisory_requests_total",
			Help: "Total advisory generation requests by outcome",
		},
		[]string{"outcome"},
	)
)
