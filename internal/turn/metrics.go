package turn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateline_turns_total",
		Help: "Turns processed, labeled by classified intent.",
	}, []string{"intent"})

	fanoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateline_fanout_failures_total",
		Help: "Fan-out branches that timed out or errored, labeled by branch.",
	}, []string{"branch"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "estateline_turn_duration_seconds",
		Help:    "Wall time to resolve one turn.",
		Buckets: prometheus.DefBuckets,
	})
)
