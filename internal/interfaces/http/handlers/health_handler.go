package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	readinessTimeout = 5 * time.Second
	detailTimeout    = 10 * time.Second
)

// HealthChecker is a backend probed by /readyz: the run database, Redis or
// the archive bucket.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping function into a named HealthChecker.
type CheckFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

func (f CheckFunc) Name() string                    { return f.Label }
func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, startAt: time.Now()}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz/detail", h.Detailed)
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// DetailResponse adds build and uptime data to the readiness view.
type DetailResponse struct {
	Status     string                    `json:"status"`
	Version    string                    `json:"version"`
	Uptime     string                    `json:"uptime"`
	Failing    []string                  `json:"failing,omitempty"`
	Components map[string]ComponentCheck `json:"components"`
}

type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz.  It never touches a backend.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{Status: "alive", Version: h.version, Uptime: h.uptime()})
}

// Readiness handles GET /readyz: 200 when every backend answers, 503
// otherwise.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.checkers) == 0 {
		c.JSON(http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}
	components, failing := h.probe(c.Request.Context(), readinessTimeout)
	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Components: components})
		return
	}
	c.JSON(http.StatusOK, ReadinessResponse{Status: "ready", Components: components})
}

// Detailed handles GET /healthz/detail.
func (h *HealthHandler) Detailed(c *gin.Context) {
	components, failing := h.probe(c.Request.Context(), detailTimeout)
	resp := DetailResponse{
		Status:     "healthy",
		Version:    h.version,
		Uptime:     h.uptime(),
		Failing:    failing,
		Components: components,
	}
	code := http.StatusOK
	if len(failing) > 0 {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// probe runs every checker concurrently under one deadline and returns the
// per-component results plus the sorted names of the failing ones.
func (h *HealthHandler) probe(ctx context.Context, timeout time.Duration) (map[string]ComponentCheck, []string) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]ComponentCheck, len(h.checkers))
		failing []string
	)
	var g errgroup.Group
	for _, checker := range h.checkers {
		checker := checker
		g.Go(func() error {
			start := time.Now()
			err := checker.Check(ctx)
			cc := ComponentCheck{Status: "healthy", Latency: time.Since(start).Truncate(time.Microsecond).String()}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			results[checker.Name()] = cc
			if err != nil {
				failing = append(failing, checker.Name())
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failing)
	return results, failing
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startAt).Truncate(time.Second).String()
}

//Personal.AI order the ending
