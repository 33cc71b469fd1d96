// Package metrics holds the domain-level Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Markers returned per viewport query, by transport.
	MarkersRendered = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfare_markers_rendered",
			Help:    "Number of place markers returned for a viewport query",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"transport"},
	)

	ListCenterRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfare_list_center_recomputes_total",
			Help: "List centroid recomputations by outcome",
		},
		[]string{"outcome"},
	)

	ListMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfare_list_mutations_total",
			Help: "List mutations by operation and final state",
		},
		[]string{"op", "state"},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfare_ws_clients",
			Help: "Connected map channel clients",
		},
	)
)

// Recompute outcomes.
const (
	OutcomeWritten = "written"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)
