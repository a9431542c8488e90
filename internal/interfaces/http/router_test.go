package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/internal/interfaces/http/handlers"
	"github.com/turtacn/MolSieve/internal/interfaces/http/middleware"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScreening struct{}

func (stubScreening) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	return &ptypes.ValidationReport{SMILES: smiles, Valid: true}, nil
}

func (stubScreening) BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	return &ptypes.BatchValidateResponse{Total: len(items)}, nil
}

func (stubScreening) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	return &ptypes.PredictionResult{Success: true, Molecule: req.Molecule}, nil
}

func (stubScreening) HandleBatchJob(ctx context.Context, msg *kafka.Message) error { return nil }

type stubGeneration struct{}

func (stubGeneration) Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	return &ptypes.GenerateResponse{OK: true, Generated: []ptypes.Candidate{}}, nil
}

func (stubGeneration) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	return &ptypes.RunDetail{RunSummary: ptypes.RunSummary{ID: id}}, nil
}

func (stubGeneration) ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, limiter memo.Limiter) *gin.Engine {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "router_test"}, logging.NewNopLogger())
	require.NoError(t, err)
	cors := middleware.DefaultCORSConfig()

	return NewRouter(RouterConfig{
		MoleculeHandler:  handlers.NewMoleculeHandler(stubScreening{}, nil),
		GeneratorHandler: handlers.NewGeneratorHandler(stubGeneration{}, stubScreening{}, nil),
		HealthHandler:    handlers.NewHealthHandler("test"),
		RateLimiter:      limiter,
		RateLimit:        middleware.DefaultRateLimitConfig(),
		CORS:             &cors,
		Logger:           logging.NewNopLogger(),
		MetricsCollector: collector,
		Metrics:          prometheus.NewAppMetrics(collector),
	})
}

func hit(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	r := newTestRouter(t, nil)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/generator/runs", http.StatusOK},
		{http.MethodGet, "/api/v1/generator/runs/abc", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
		{http.MethodGet, "/api/v1/generator/run", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := hit(r, tc.method, tc.path)
			assert.Equal(t, tc.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestNewRouter_MetricsExposeHTTPRequests(t *testing.T) {
	r := newTestRouter(t, nil)
	hit(r, http.MethodGet, "/api/v1/generator/runs/abc")

	w := hit(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_")
}

func TestNewRouter_RateLimitOnlyGuardsAPI(t *testing.T) {
	limiter := memo.NewThrottle(1, memo.WithWindow(time.Minute))
	t.Cleanup(func() { _ = limiter.Close() })
	r := newTestRouter(t, limiter)

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/api/v1/generator/runs").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodGet, "/api/v1/generator/runs").Code)
	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/healthz").Code)
}

func TestNewRouter_MinimalConfig(t *testing.T) {
	r := NewRouter(RouterConfig{})
	assert.Equal(t, http.StatusNotFound, hit(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, hit(r, http.MethodGet, "/metrics").Code)
}

//Personal.AI order the ending
