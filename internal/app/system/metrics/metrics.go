// internal/app/system/metrics/metrics.go
//
// Package metrics exposes Prometheus counters for schedule mutations, fan-out
// failures, free-time compare-and-swap retries, and reconciler outcomes. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupsched"

type Metrics struct {
	reg *prometheus.Registry

	mutations   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fanoutFails *prometheus.CounterVec
	casRetries  *prometheus.CounterVec
	reconciled  *prometheus.CounterVec
}

// New builds a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Schedule service operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mutation_duration_seconds",
			Help:      "Schedule service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		fanoutFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_failures_total",
			Help:      "Secondary writes that failed and were recorded for reconciliation.",
		}, []string{"kind"}),
		casRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "freetime_cas_retries_total",
			Help:      "Free-time writes retried after a version conflict.",
		}, []string{"target"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_total",
			Help:      "Fan-out failures replayed by the reconciler, by result.",
		}, []string{"result"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.mutations, m.duration, m.fanoutFails, m.casRetries, m.reconciled,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Observe records one operation that started at start and ended with err.
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// FanoutFailure counts a recorded fan-out failure of the given kind.
func (m *Metrics) FanoutFailure(kind string) {
	if m == nil {
		return
	}
	m.fanoutFails.WithLabelValues(kind).Inc()
}

// CASRetry counts a free-time retry on a "user" or "group" document.
func (m *Metrics) CASRetry(target string) {
	if m == nil {
		return
	}
	m.casRetries.WithLabelValues(target).Inc()
}

// Reconciled counts n replayed failures with result "resolved", "retry" or
// "abandoned".
func (m *Metrics) Reconciled(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciled.WithLabelValues(result).Add(float64(n))
}
