package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient("ftp://host")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient("://bad")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	c, err := NewClient("http://localhost:8080/",
		WithTimeout(5*time.Second), WithRetryMax(1), WithUserAgent("ua/1"), WithAPIKey("k"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 1, c.retryMax)
	assert.Equal(t, "ua/1", c.userAgent)
	assert.Same(t, c.Molecules(), c.Molecules())
	assert.Same(t, c.Generator(), c.Generator())
}

func TestWithRetryWait_IgnoresInvertedBounds(t *testing.T) {
	c, err := NewClient("http://x", WithRetryWait(2*time.Second, time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, ptypes.ValidationReport{Valid: true})
	}, WithAPIKey("secret"))

	_, err := c.Molecules().ValidateStructure(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
	assert.Contains(t, got.Get("User-Agent"), "molsieve-go-sdk/")
}

func TestClient_ErrorShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/molecule/validate-structure":
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "COMMON_002", "detail": "SMILES is required"})
		case "/api/v1/generator/run":
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "generated": []string{}, "error": "count out of range"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("nope"))
		}
	})
	ctx := context.Background()

	_, err := c.Molecules().ValidateStructure(ctx, "X")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "COMMON_002", apiErr.Code)
	assert.Equal(t, "SMILES is required", apiErr.Message)
	assert.False(t, apiErr.IsServerError())

	_, err = c.Generator().Run(ctx, &ptypes.GenerateRequest{Target: "EGFR", Count: 999})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "count out of range", apiErr.Message)

	_, err = c.Generator().GetRun(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "nope", apiErr.Message)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, ptypes.PredictionResult{Success: true, Molecule: "aspirin"})
	})

	res, err := c.Molecules().PredictProperties(context.Background(), &ptypes.PredictRequest{Molecule: "aspirin"})
	require.NoError(t, err)
	assert.Equal(t, "aspirin", res.Molecule)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"code": "COMMON_008", "detail": "down"})
	}, WithRetryMax(2))

	_, err := c.Generator().ListRuns(context.Background(), 0, 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "COMMON_007", "detail": "Rate limit exceeded"})
	})

	_, err := c.Molecules().PredictProperties(context.Background(), &ptypes.PredictRequest{Molecule: "aspirin"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, int32(1), calls.Load(), "no Retry-After means no retry")
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Generator().ListRuns(ctx, 10, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeneratorClient(t *testing.T) {
	var gotQuery string
	var gotBatch ptypes.BatchValidateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/generator/run":
			var req ptypes.GenerateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusOK, ptypes.GenerateResponse{OK: true, Total: req.Count, RunID: "r-1",
				Generated: []ptypes.Candidate{{SMILES: "CCO"}}})
		case "/api/v1/generator/validate-batch":
			_ = json.NewDecoder(r.Body).Decode(&gotBatch)
			writeJSON(w, http.StatusOK, ptypes.BatchValidateResponse{Total: len(gotBatch.SMILESList)})
		case "/api/v1/generator/runs":
			gotQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, RunList{Runs: []ptypes.RunSummary{{ID: "r-1"}}, Limit: 5, Offset: 10})
		case "/api/v1/generator/runs/r-1":
			writeJSON(w, http.StatusOK, ptypes.RunDetail{RunSummary: ptypes.RunSummary{ID: "r-1"}})
		}
	})
	ctx := context.Background()
	g := c.Generator()

	resp, err := g.Run(ctx, &ptypes.GenerateRequest{Target: "EGFR", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, "r-1", resp.RunID)

	batch, err := g.ValidateBatch(ctx, []interface{}{"CCO", 42})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, float64(42), gotBatch.SMILESList[1])

	list, err := g.ListRuns(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, "limit=5&offset=10", gotQuery)
	require.Len(t, list.Runs, 1)

	run, err := g.GetRun(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", run.ID)

	_, err = g.GetRun(ctx, "")
	assert.Error(t, err)
	_, err = g.Run(ctx, nil)
	assert.Error(t, err)
}

func TestMoleculesClient_RejectsBlankInput(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.Molecules().ValidateStructure(context.Background(), "  ")
	assert.Error(t, err)
	_, err = c.Molecules().PredictProperties(context.Background(), &ptypes.PredictRequest{})
	assert.Error(t, err)
}

//Personal.AI order the ending
