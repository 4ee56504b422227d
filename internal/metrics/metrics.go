// Package metrics provides Prometheus collectors for verification runs.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/satyamitra/internal/model"
)

const namespace = "satyamitra"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	runsTotal             *prometheus.CounterVec
	runErrorsTotal        *prometheus.CounterVec
	nodeDuration          *prometheus.HistogramVec
	verdictFallbackTotal  prometheus.Counter
	reputationLookupTotal *prometheus.CounterVec
	critiqueRetriesTotal  prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
}

// New creates and registers all collectors
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Completed verification runs by input type and verdict",
	}, []string{"input_type", "verdict"})

	m.runErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "run_errors_total",
		Help:      "Verification runs aborted, by failing node",
	}, []string{"node"})

	m.nodeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "node_duration_seconds",
		Help:      "Time spent in each state machine node",
		// 10ms to ~80s; model calls dominate
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"node"})

	m.verdictFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verdict_parse_fallback_total",
		Help:      "Reports whose verdict token was missing or unrecognised",
	})

	m.reputationLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reputation_lookups_total",
		Help:      "Domain reputation lookups by result (hit, miss, error)",
	}, []string{"result"})

	m.critiqueRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "critique_retries_total",
		Help:      "Research passes requested by the critic",
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by route and status code",
	}, []string{"route", "code"})

	for _, c := range []prometheus.Collector{
		m.runsTotal,
		m.runErrorsTotal,
		m.nodeDuration,
		m.verdictFallbackTotal,
		m.reputationLookupTotal,
		m.critiqueRetriesTotal,
		m.httpRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// NodeDone records a node's duration and counts failures against it
func (m *Metrics) NodeDone(node string, elapsed time.Duration, err error) {
	m.nodeDuration.WithLabelValues(node).Observe(elapsed.Seconds())
	if err != nil {
		m.runErrorsTotal.WithLabelValues(node).Inc()
	}
}

// RunDone counts a completed run
func (m *Metrics) RunDone(inputType model.InputType, verdict model.Verdict) {
	m.runsTotal.WithLabelValues(string(inputType), string(verdict)).Inc()
}

// VerdictFallback counts a report parsed with the UNVERIFIED default
func (m *Metrics) VerdictFallback() {
	m.verdictFallbackTotal.Inc()
}

// CritiqueRetry counts a rejected research pass
func (m *Metrics) CritiqueRetry() {
	m.critiqueRetriesTotal.Inc()
}

// ReputationLookup counts a reputation lookup outcome
func (m *Metrics) ReputationLookup(result string) {
	m.reputationLookupTotal.WithLabelValues(result).Inc()
}

// HTTPRequest counts an API request
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
