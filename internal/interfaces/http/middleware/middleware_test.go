package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	r.GET("/bad", func(c *gin.Context) { c.String(http.StatusBadRequest, "bad") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "alive") })
	return r
}

func serve(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

// ─────────────────────────────────────────────────────────────────────────────
// RequestID
// ─────────────────────────────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := serve(r, http.MethodGet, "/ok", nil)
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)

	w = serve(r, http.MethodGet, "/ok", map[string]string{HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	w = serve(r, http.MethodGet, "/ok", map[string]string{HeaderRequestID: strings.Repeat("x", 200)})
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging
// ─────────────────────────────────────────────────────────────────────────────

func TestRequestLogging_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(RequestID(), RequestLogging(logging.NewLoggerFromCore(core), DefaultLoggingConfig()))

	serve(r, http.MethodGet, "/ok?q=1", nil)
	serve(r, http.MethodGet, "/bad", nil)
	serve(r, http.MethodGet, "/boom", nil)
	serve(r, http.MethodGet, "/healthz", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok?q=1", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestRequestLogging_Slow(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogging(logging.NewLoggerFromCore(core), LoggingConfig{SlowThreshold: time.Millisecond}))
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(5 * time.Millisecond)
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/slow", nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

// ─────────────────────────────────────────────────────────────────────────────
// RateLimit
// ─────────────────────────────────────────────────────────────────────────────

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := memo.NewThrottle(2, memo.WithClock(func() time.Time { return now }))
	defer limiter.Close()
	r := newEngine(RateLimit(limiter, DefaultRateLimitConfig()))

	w := serve(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, "1", w.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, "1777636860", w.Header().Get(HeaderRateLimitReset))

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get(HeaderRateLimitRemaining))

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")

	w = serve(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderRateLimitLimit))
}

func TestRateLimit_PerClientKey(t *testing.T) {
	limiter := memo.NewThrottle(1)
	defer limiter.Close()
	cfg := DefaultRateLimitConfig()
	cfg.KeyFunc = ClientIPKey
	r := newEngine(RateLimit(limiter, cfg))

	a := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}
	b := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, a())
	assert.Equal(t, http.StatusOK, b())
	assert.Equal(t, http.StatusTooManyRequests, a())
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	r := newEngine(RateLimit(nil, DefaultRateLimitConfig()))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ok", nil).Code)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// CORS
// ─────────────────────────────────────────────────────────────────────────────

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	r := newEngine(CORS(cfg))

	w := serve(r, http.MethodOptions, "/ok", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_SimpleRequest(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	r := newEngine(CORS(cfg))

	w := serve(r, http.MethodGet, "/ok", map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), HeaderRateLimitRemaining)
	assert.Equal(t, "ok", w.Body.String())

	w = serve(r, http.MethodGet, "/ok", map[string]string{"Origin": "https://evil.example.org"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcards(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*"}
	w := serve(newEngine(CORS(cfg)), http.MethodGet, "/ok", map[string]string{"Origin": "https://any.io"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	cfg.AllowCredentials = true
	w = serve(newEngine(CORS(cfg)), http.MethodGet, "/ok", map[string]string{"Origin": "https://any.io"})
	assert.Equal(t, "https://any.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	cfg = DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*.example.com"}
	cfg.AllowWildcard = true
	w = serve(newEngine(CORS(cfg)), http.MethodGet, "/ok", map[string]string{"Origin": "https://lab.example.com"})
	assert.Equal(t, "https://lab.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────────────────

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "molsieve"}, nil)
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)
	r := newEngine(Metrics(m))

	serve(r, http.MethodGet, "/items/42", nil)
	serve(r, http.MethodGet, "/items/43", nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	body := serve(collector.Handler(), http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `path="/items/:id"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, `path="/items/42"`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newEngine(Metrics(nil)), http.MethodGet, "/ok", nil).Code)
}

//Personal.AI order the ending
