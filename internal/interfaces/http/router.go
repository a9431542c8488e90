// Package http exposes the MolSieve API over gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/internal/interfaces/http/handlers"
	"github.com/turtacn/MolSieve/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	MoleculeHandler  *handlers.MoleculeHandler
	GeneratorHandler *handlers.GeneratorHandler
	HealthHandler    *handlers.HealthHandler

	// RateLimiter guards /api/v1.  Nil disables it.
	RateLimiter memo.Limiter
	RateLimit   middleware.RateLimitConfig
	CORS        *middleware.CORSConfig
	Logging     *middleware.LoggingConfig

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
}

// NewRouter builds the route tree: global middleware, public probes and
// metrics, then the throttled /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}
	r.Use(gin.Recovery(), middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, logCfg), middleware.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		rl := cfg.RateLimit
		if rl.Metrics == nil {
			rl.Metrics = cfg.Metrics
		}
		api.Use(middleware.RateLimit(cfg.RateLimiter, rl))
	}
	if cfg.MoleculeHandler != nil {
		cfg.MoleculeHandler.RegisterRoutes(api)
	}
	if cfg.GeneratorHandler != nil {
		cfg.GeneratorHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Code: "COMMON_005", Detail: "route not found"})
	})
	return r
}

//Personal.AI order the ending
