package prometheus

import (
	"strconv"
	"time"
)

// Outcome labels for molsieve_generation_runs_total.
const (
	OutcomeProvider = "provider"
	OutcomeFallback = "fallback"
	OutcomeCache    = "cache"
)

var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultGenerationDurationBuckets = []float64{.05, .1, .5, 1, 2, 5, 10, 30, 60, 120}
)

// AppMetrics holds every series the service exports.  A nil *AppMetrics is
// valid and records nothing.
type AppMetrics struct {
	ValidationsTotal        CounterVec
	GenerationRunsTotal     CounterVec
	GenerationDuration      HistogramVec
	ProposalRequestsTotal   CounterVec
	PredictionFailuresTotal CounterVec
	ThrottleDeniedTotal     CounterVec
	CacheHitsTotal          CounterVec
	CacheMissesTotal        CounterVec
	BatchJobsTotal          CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec
}

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		ValidationsTotal:        collector.RegisterCounter("validations_total", "Structure validations by result", "result"),
		GenerationRunsTotal:     collector.RegisterCounter("generation_runs_total", "Generation runs by outcome", "outcome"),
		GenerationDuration:      collector.RegisterHistogram("generation_duration_seconds", "Generation run duration", DefaultGenerationDurationBuckets),
		ProposalRequestsTotal:   collector.RegisterCounter("proposal_requests_total", "Proposal source calls by status", "status"),
		PredictionFailuresTotal: collector.RegisterCounter("prediction_failures_total", "Property predictions that fell back to the heuristic"),
		ThrottleDeniedTotal:     collector.RegisterCounter("throttle_denied_total", "Requests denied by a throttle", "key"),
		CacheHitsTotal:          collector.RegisterCounter("cache_hits_total", "Cache hits", "cache"),
		CacheMissesTotal:        collector.RegisterCounter("cache_misses_total", "Cache misses", "cache"),
		BatchJobsTotal:          collector.RegisterCounter("batch_jobs_total", "Batch validation jobs consumed by the worker", "status"),

		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path", "status"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests"),

		GRPCRequestsTotal:   collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code"),
		GRPCRequestDuration: collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method"),
	}
}

func (m *AppMetrics) RecordValidation(valid bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(result).Inc()
}

func (m *AppMetrics) RecordGenerationRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationRunsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDuration.WithLabelValues().Observe(d.Seconds())
}

func (m *AppMetrics) RecordProposalRequest(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.ProposalRequestsTotal.WithLabelValues(status).Inc()
}

func (m *AppMetrics) RecordPredictionFailure() {
	if m == nil {
		return
	}
	m.PredictionFailuresTotal.WithLabelValues().Inc()
}

func (m *AppMetrics) RecordThrottleDenied(key string) {
	if m == nil {
		return
	}
	m.ThrottleDeniedTotal.WithLabelValues(key).Inc()
}

func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (m *AppMetrics) RecordBatchJob(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.BatchJobsTotal.WithLabelValues(status).Inc()
}

func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func (m *AppMetrics) RecordGRPCRequest(service, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

// TrackActive increments the in-flight gauge and returns the matching decrement.
func (m *AppMetrics) TrackActive() func() {
	if m == nil {
		return func() {}
	}
	g := m.HTTPActiveRequests.WithLabelValues()
	g.Inc()
	return g.Dec
}

//Personal.AI order the ending
