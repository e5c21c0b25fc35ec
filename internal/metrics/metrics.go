// Package metrics exposes Prometheus collectors for jobs, credits and HTTP
// traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dtroode/cutout-server/internal/model"
)

const namespace = "cutout"

type Collector struct {
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	creditsRefunded prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "total",
				Help:      "Background removal jobs by outcome and failure reason",
			},
			[]string{"outcome", "reason"},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "duration_seconds",
				Help:      "Time from submission to terminal state",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		creditsRefunded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "credits_refunded_total",
				Help:      "Credits returned after failed or abandoned jobs",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (c *Collector) JobFinished(outcome model.Outcome, reason model.FailureReason, elapsed time.Duration) {
	r := string(reason)
	if r == "" {
		r = "none"
	}
	c.jobsTotal.WithLabelValues(string(outcome), r).Inc()
	c.jobDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

func (c *Collector) CreditsRefunded(count int) {
	c.creditsRefunded.Add(float64(count))
}

func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
