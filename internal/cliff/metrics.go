package cliff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cliffNodesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cove_cliff_nodes",
		Help: "Live node count after the most recent step",
	})

	cliffNodesInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cove_cliff_nodes_inserted_total",
		Help: "Nodes inserted by density control",
	})

	cliffNodesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cove_cliff_nodes_removed_total",
		Help: "Nodes removed by density control",
	})

	cliffIntersectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cove_cliff_self_intersections_total",
		Help: "Self-intersections detected after retreat",
	})

	cliffErodedVolumeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cove_cliff_eroded_volume_cubic_metres_total",
		Help: "Absolute cliff volume eroded",
	})

	cliffStepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cove_cliff_step_duration_seconds",
		Help:    "Duration of a single retreat step",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})
)
