package pthreadpool

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PoolCollector exposes a Pool's job and thread counters to Prometheus.
// It owns its own prometheus.Registry rather than registering against
// the global default, so a process running several pools (or a test
// suite constructing many pools in a row) can attach one collector per
// pool without MustRegister panicking on a duplicate metric name.
type PoolCollector struct {
	registry *prometheus.Registry

	jobsEnqueued   prometheus.Counter
	jobsDispatched prometheus.Counter
	jobsCompleted  prometheus.Counter
	jobsCanceled   prometheus.Counter
	workerExits    prometheus.Counter

	jobDuration prometheus.Histogram

	currentThreads prometheus.Gauge
	idleThreads    prometheus.Gauge
	queuedJobs     prometheus.Gauge
}

// NewPoolCollector builds a collector labeled with name (used as a
// Prometheus constant label so several pools can share one registry
// without their series colliding).
func NewPoolCollector(name string) *PoolCollector {
	labels := prometheus.Labels{"pool": name}

	c := &PoolCollector{
		registry: prometheus.NewRegistry(),
		jobsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pthreadpool_jobs_enqueued_total",
			Help:        "Total number of jobs submitted to the pool.",
			ConstLabels: labels,
		}),
		jobsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pthreadpool_jobs_dispatched_total",
			Help:        "Total number of jobs handed to a worker.",
			ConstLabels: labels,
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pthreadpool_jobs_completed_total",
			Help:        "Total number of jobs whose SignalFunc returned zero.",
			ConstLabels: labels,
		}),
		jobsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pthreadpool_jobs_canceled_total",
			Help:        "Total number of queued jobs removed by CancelJob.",
			ConstLabels: labels,
		}),
		workerExits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pthreadpool_worker_exits_total",
			Help:        "Total number of worker goroutines that have retired.",
			ConstLabels: labels,
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "pthreadpool_job_duration_seconds",
			Help:        "Wall-clock time spent running a job's function.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),
		currentThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pthreadpool_threads_current",
			Help:        "Number of worker goroutines currently alive.",
			ConstLabels: labels,
		}),
		idleThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pthreadpool_threads_idle",
			Help:        "Number of worker goroutines currently waiting for a job.",
			ConstLabels: labels,
		}),
		queuedJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pthreadpool_jobs_queued",
			Help:        "Number of jobs submitted but not yet dispatched.",
			ConstLabels: labels,
		}),
	}

	c.registry.MustRegister(
		c.jobsEnqueued,
		c.jobsDispatched,
		c.jobsCompleted,
		c.jobsCanceled,
		c.workerExits,
		c.jobDuration,
		c.currentThreads,
		c.idleThreads,
		c.queuedJobs,
	)

	return c
}

// Registry returns the collector's private registry, for embedding in a
// larger /metrics handler alongside other collectors.
func (c *PoolCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an http.Handler serving this collector's metrics in
// Prometheus exposition format.
func (c *PoolCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
