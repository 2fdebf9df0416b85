// Package telemetry aggregates per-action request and error samples over a
// sliding window and mirrors them into Prometheus. The aggregator is an
// injected instance with its own registry, so tests and multiple pipelines
// never share state through package globals.
package telemetry

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	maxRequestSamples = 1000
	maxErrorSamples   = 500
)

// RequestSample records one served generation request.
type RequestSample struct {
	SubjectID string
	Action    string
	LatencyMS int64
	CacheHit  bool
	Timestamp time.Time
}

// ErrorSample records one failed generation request.
type ErrorSample struct {
	SubjectID string
	Action    string
	Kind      string
	Message   string
	Timestamp time.Time
}

// ActionSummary aggregates the current window for one action.
type ActionSummary struct {
	TotalRequests int     `json:"total_requests"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	TotalErrors   int     `json:"total_errors"`
}

// Aggregator collects bounded ring buffers of samples per action. All methods
// are safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	requests map[string][]RequestSample
	errors   map[string][]ErrorSample
	now      func() time.Time

	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latencySeconds *prometheus.HistogramVec
	cacheDegraded  prometheus.Counter
}

// New constructs an Aggregator with its own Prometheus registry.
func New() *Aggregator {
	a := &Aggregator{
		requests: make(map[string][]RequestSample),
		errors:   make(map[string][]ErrorSample),
		now:      time.Now,
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animator_requests_total",
			Help: "Total generation requests served, by action and cache outcome",
		}, []string{"action", "cache_hit"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animator_errors_total",
			Help: "Total failed generation requests, by action and error kind",
		}, []string{"action", "kind"}),
		latencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "animator_request_latency_seconds",
			Help:    "End-to-end request latency, by action",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 60, 120, 300},
		}, []string{"action"}),
		cacheDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animator_cache_degraded_total",
			Help: "Backing-store failures degraded to cache misses or dropped writes",
		}),
	}
	a.registry.MustRegister(a.requestsTotal, a.errorsTotal, a.latencySeconds, a.cacheDegraded)
	return a
}

// Registry exposes the aggregator's Prometheus registry for the metrics
// endpoint.
func (a *Aggregator) Registry() *prometheus.Registry { return a.registry }

// RecordRequest records a served request sample.
func (a *Aggregator) RecordRequest(subjectID, action string, latencyMS int64, cacheHit bool) {
	hit := "false"
	if cacheHit {
		hit = "true"
	}
	a.requestsTotal.WithLabelValues(action, hit).Inc()
	a.latencySeconds.WithLabelValues(action).Observe(float64(latencyMS) / 1000)

	a.mu.Lock()
	defer a.mu.Unlock()
	buf := append(a.requests[action], RequestSample{
		SubjectID: subjectID,
		Action:    action,
		LatencyMS: latencyMS,
		CacheHit:  cacheHit,
		Timestamp: a.now(),
	})
	if len(buf) > maxRequestSamples {
		buf = buf[len(buf)-maxRequestSamples:]
	}
	a.requests[action] = buf
}

// RecordError records a failed request sample.
func (a *Aggregator) RecordError(subjectID, action, kind, message string) {
	a.errorsTotal.WithLabelValues(action, kind).Inc()

	a.mu.Lock()
	defer a.mu.Unlock()
	buf := append(a.errors[action], ErrorSample{
		SubjectID: subjectID,
		Action:    action,
		Kind:      kind,
		Message:   message,
		Timestamp: a.now(),
	})
	if len(buf) > maxErrorSamples {
		buf = buf[len(buf)-maxErrorSamples:]
	}
	a.errors[action] = buf
}

// CacheDegraded counts one degraded-cache event.
func (a *Aggregator) CacheDegraded() {
	a.cacheDegraded.Inc()
}

// Summary computes per-action aggregates over the current buffer contents.
func (a *Aggregator) Summary() map[string]ActionSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]ActionSummary)
	for action, samples := range a.requests {
		total := len(samples)
		hits := 0
		var latencySum int64
		for _, s := range samples {
			if s.CacheHit {
				hits++
			}
			latencySum += s.LatencyMS
		}
		summary := ActionSummary{TotalRequests: total}
		if total > 0 {
			summary.CacheHitRate = float64(hits) / float64(total)
			summary.AvgLatencyMS = math.Round(float64(latencySum)/float64(total)*100) / 100
		}
		out[action] = summary
	}
	for action, samples := range a.errors {
		summary := out[action]
		summary.TotalErrors = len(samples)
		out[action] = summary
	}
	return out
}
