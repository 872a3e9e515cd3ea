package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_ticks_total",
		Help: "Total number of watcher ticks started, labelled by watcher.",
	}, []string{"watcher"})

	TicksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_ticks_skipped_total",
		Help: "Total number of ticks skipped because the previous tick was still running.",
	}, []string{"watcher"})

	WatchersTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_triggered_total",
		Help: "Total number of ticks whose execute phase fired, labelled by watcher.",
	}, []string{"watcher"})

	EvaluationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_evaluation_errors_total",
		Help: "Total number of failed expression evaluations, labelled by watcher.",
	}, []string{"watcher"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_actions_executed_total",
		Help: "Total number of action invocations, labelled by plugin and final status.",
	}, []string{"plugin", "status"})

	ActionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynwatch_action_retries_total",
		Help: "Total number of retried action attempts, labelled by plugin.",
	}, []string{"plugin"})

	ActionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dynwatch_action_duration_seconds",
		Help:    "Wall time of a full action run including retries.",
		Buckets: []float64{.005, .025, .1, .25, 1, 2.5, 10, 30, 60, 120},
	})

	WatchersExcluded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynwatch_watchers_excluded_total",
		Help: "Total number of watchers excluded from scheduling by configuration errors.",
	})
)
