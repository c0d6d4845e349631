package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/njchilds90/curvesketch/analysis"
)

var (
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curvesketch_tool_calls_total",
		Help: "Tool calls by tool and outcome",
	}, []string{"tool", "outcome"})

	analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curvesketch_analyses_total",
		Help: "Analysis requests by outcome",
	}, []string{"outcome"})

	solveStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curvesketch_solve_status_total",
		Help: "Root searches by solver status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curvesketch_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"route"})
)

func observeReport(r *analysis.Report) {
	solveStatus.WithLabelValues(string(r.Critical.Status)).Inc()
	solveStatus.WithLabelValues(string(r.Inflection.Status)).Inc()
}
