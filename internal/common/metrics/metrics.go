package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_completed_total",
			Help: "Total number of analysis stages that resolved with a usable payload",
		},
		[]string{"category"},
	)

	StagesDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_degraded_total",
			Help: "Total number of analysis stages resolved via fallback payloads",
		},
		[]string{"category", "failure_class"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of a single analysis stage in seconds",
		},
		[]string{"category"},
	)

	EvaluationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_evaluations_completed_total",
			Help: "Total number of completed evaluations by overall risk level",
		},
		[]string{"risk_level"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "pipeline_evaluation_duration_seconds",
			Help: "Duration of a full evaluation in seconds",
		},
	)
)
