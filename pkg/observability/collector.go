// Package observability bridges the conveyor's lifecycle hooks to
// Prometheus metrics. Attach a Collector's Hooks to a conveyor and serve
// its registry (e.g. via pkg/adapters/http) to watch queue depth,
// throughput and failures.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/conveyor/pkg/domain"
)

// Collector owns the conveyor metrics and produces the lifecycle hooks
// that keep them current.
type Collector struct {
	enqueued    prometheus.Counter
	executed    prometheus.Counter
	failures    prometheus.Counter
	drains      prometheus.Counter
	queueDepth  prometheus.Gauge
	bufferDepth prometheus.Gauge
	duration    prometheus.Histogram
}

// NewCollector creates a collector and registers its metrics on reg.
// Pass prometheus.DefaultRegisterer for the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_actions_enqueued_total",
			Help: "Total number of actions accepted by the engine",
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_actions_executed_total",
			Help: "Total number of actions that settled successfully",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_action_failures_total",
			Help: "Total number of action execution failures",
		}),
		drains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_buffer_drains_total",
			Help: "Total number of actions moved from the overflow buffer",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "conveyor_queue_depth",
			Help: "Current active queue length",
		}),
		bufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "conveyor_buffer_depth",
			Help: "Current overflow buffer length",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conveyor_action_duration_seconds",
			Help:    "Start-to-settle duration of executed actions",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		c.enqueued, c.executed, c.failures, c.drains,
		c.queueDepth, c.bufferDepth, c.duration,
	)
	return c
}

// Hooks returns lifecycle hooks that record onto this collector. Combine
// with your own hooks if you need both.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEnqueue: func(_ context.Context, e *domain.QueueEvent) {
			c.enqueued.Add(float64(e.Accepted))
			c.queueDepth.Set(float64(e.QueueDepth))
			c.bufferDepth.Set(float64(e.BufferDepth))
		},
		OnActionSettle: func(_ context.Context, e *domain.ActionEvent) {
			c.executed.Inc()
			c.duration.Observe(e.Duration.Seconds())
		},
		OnActionError: func(_ context.Context, e *domain.ActionEvent) {
			c.failures.Inc()
			c.duration.Observe(e.Duration.Seconds())
		},
		OnBufferDrain: func(_ context.Context, e *domain.QueueEvent) {
			c.drains.Inc()
			c.queueDepth.Set(float64(e.QueueDepth))
			c.bufferDepth.Set(float64(e.BufferDepth))
		},
		OnComplete: func(_ context.Context, _ *domain.QueueEvent) {
			c.queueDepth.Set(0)
			c.bufferDepth.Set(0)
		},
	}
}
