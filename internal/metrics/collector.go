// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BaSui01/aicrew/types"
)

// Collector exposes the processing counters the dispatcher and workflow
// engine report into.
type Collector struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	rejections    *prometheus.CounterVec
	llmCallsTotal *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	tasksInFlight prometheus.Gauge
}

// NewCollector registers the collectors on reg; a nil reg uses the default
// registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{}

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Total number of workflow runs by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"kind"},
	)

	c.rejections = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_rejections_total",
			Help:      "Total number of rejected tasks by reason",
		},
		[]string{"reason"},
	)

	c.llmCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of language model calls by outcome",
		},
		[]string{"outcome"},
	)

	c.queueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_depth",
			Help:      "Number of tasks waiting on the queue",
		},
	)

	c.tasksInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Number of tasks currently being processed",
		},
	)

	return c
}

// ObserveRun records one finished workflow run.
func (c *Collector) ObserveRun(kind string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.runsTotal.WithLabelValues(kind, outcome).Inc()
	c.runDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRejection records one rejected task.
func (c *Collector) ObserveRejection(reason types.RejectionReason) {
	c.rejections.WithLabelValues(string(reason)).Inc()
}

// ObserveLLMCall records one language model call.
func (c *Collector) ObserveLLMCall(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.llmCallsTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (c *Collector) SetQueueDepth(n int64) {
	c.queueDepth.Set(float64(n))
}

// TaskStarted and TaskFinished track the in-flight gauge.
func (c *Collector) TaskStarted()  { c.tasksInFlight.Inc() }
func (c *Collector) TaskFinished() { c.tasksInFlight.Dec() }
