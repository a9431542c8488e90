package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetrics_SeriesNames(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "molsieve"}, nil)
	require.NoError(t, err)
	m := NewAppMetrics(c)

	m.RecordValidation(true)
	m.RecordValidation(true)
	m.RecordValidation(false)
	m.RecordGenerationRun(OutcomeFallback, 2*time.Second)
	m.RecordProposalRequest(false)
	m.RecordPredictionFailure()
	m.RecordThrottleDenied("predict-properties")
	m.RecordCacheAccess("properties", true)
	m.RecordCacheAccess("properties", false)
	m.RecordBatchJob(true)
	m.RecordHTTPRequest("POST", "/api/v1/generator/run", 200, 50*time.Millisecond)
	m.RecordGRPCRequest("grpc.health.v1.Health", "Check", "OK", time.Millisecond)
	done := m.TrackActive()

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `molsieve_validations_total{result="valid"} 2`)
	assert.Contains(t, out, `molsieve_validations_total{result="invalid"} 1`)
	assert.Contains(t, out, `molsieve_generation_runs_total{outcome="fallback"} 1`)
	assert.Contains(t, out, "molsieve_generation_duration_seconds_count 1")
	assert.Contains(t, out, `molsieve_proposal_requests_total{status="failure"} 1`)
	assert.Contains(t, out, "molsieve_prediction_failures_total 1")
	assert.Contains(t, out, `molsieve_throttle_denied_total{key="predict-properties"} 1`)
	assert.Contains(t, out, `molsieve_cache_hits_total{cache="properties"} 1`)
	assert.Contains(t, out, `molsieve_cache_misses_total{cache="properties"} 1`)
	assert.Contains(t, out, `molsieve_batch_jobs_total{status="success"} 1`)
	assert.Contains(t, out, `molsieve_http_requests_total{method="POST",path="/api/v1/generator/run",status="200"} 1`)
	assert.Contains(t, out, "molsieve_http_active_requests 1")
	assert.Contains(t, out, `molsieve_grpc_requests_total{code="OK",method="Check",service="grpc.health.v1.Health"} 1`)

	done()
	assert.Contains(t, scrapeMetrics(t, c), "molsieve_http_active_requests 0")
}

func TestAppMetrics_NilIsSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.RecordValidation(true)
		m.RecordGenerationRun(OutcomeCache, time.Second)
		m.RecordProposalRequest(true)
		m.RecordPredictionFailure()
		m.RecordThrottleDenied("k")
		m.RecordCacheAccess("c", true)
		m.RecordBatchJob(false)
		m.RecordHTTPRequest("GET", "/", 200, 0)
		m.RecordGRPCRequest("s", "m", "OK", 0)
		m.TrackActive()()
	})
}

//Personal.AI order the ending
