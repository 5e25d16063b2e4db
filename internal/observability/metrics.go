package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the pipeline's externally observable health: run outcomes,
// which step failed, how long runs take, and scheduling slippage.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	StepFailures       *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	ModelExchanges     *prometheus.CounterVec
	SchedulingFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wellora_pipeline_runs_total",
			Help: "Daily pipeline runs by result (succeeded, failed, skipped).",
		}, []string{"result"}),
		StepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wellora_pipeline_step_failures_total",
			Help: "Pipeline step failures by step name.",
		}, []string{"step"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellora_pipeline_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		ModelExchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wellora_model_exchanges_total",
			Help: "Conversation exchanges with the generation backend by result.",
		}, []string{"result"}),
		SchedulingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "wellora_notification_scheduling_failures_total",
			Help: "Best-effort notification scheduling failures (do not fail runs).",
		}),
	}
}
