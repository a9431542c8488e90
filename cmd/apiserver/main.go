// Command apiserver serves the MolSieve HTTP API and the gRPC health service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolSieve/internal/app"
	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/MolSieve/internal/interfaces/grpc"
	httpserver "github.com/turtacn/MolSieve/internal/interfaces/http"
	"github.com/turtacn/MolSieve/internal/interfaces/http/handlers"
	"github.com/turtacn/MolSieve/internal/interfaces/http/middleware"
)

const (
	defaultConfigPath   = "configs/config.yaml"
	shutdownTimeout     = 30 * time.Second
	healthProbeInterval = 15 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting MolSieve API server",
		logging.String("version", config.Version),
		logging.String("environment", cfg.Server.Environment),
		logging.Int("http_port", cfg.Server.HTTP.Port),
		logging.Int("grpc_port", cfg.Server.GRPC.Port))

	a, err := app.New(ctx, cfg, logger, app.WithSource("apiserver"))
	if err != nil {
		return fmt.Errorf("assemble services: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release resources", logging.Err(err))
		}
	}()

	routerCfg := httpserver.RouterConfig{
		MoleculeHandler:  handlers.NewMoleculeHandler(a.Screening, logger),
		GeneratorHandler: handlers.NewGeneratorHandler(a.Generation, a.Screening, logger),
		HealthHandler:    handlers.NewHealthHandler(config.Version, a.Checks...),
		RateLimiter:      a.HTTPLimiter,
		RateLimit:        middleware.DefaultRateLimitConfig(),
		Logger:           logger,
		MetricsCollector: a.Collector,
		Metrics:          a.Metrics,
	}
	if cfg.Server.FrontendURL != "" {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = []string{cfg.Server.FrontendURL}
		routerCfg.CORS = &cors
	}
	loggingCfg := middleware.DefaultLoggingConfig()
	routerCfg.Logging = &loggingCfg

	httpSrv := httpserver.NewServer(cfg.Server.HTTP, httpserver.NewRouter(routerCfg), logger)

	grpcSrv, err := grpcserver.NewServer(cfg.Server.GRPC,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(a.Metrics))
	if err != nil {
		return fmt.Errorf("create grpc server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(grpcSrv.Start)
	g.Go(func() error {
		probeHealth(gctx, grpcSrv, a.Checks, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var firstErr error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
		if err := grpcSrv.Stop(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("servers stopped")
	return nil
}

// probeHealth mirrors the readiness checks onto the gRPC health service
// until ctx ends.
func probeHealth(ctx context.Context, srv *grpcserver.Server, checks []handlers.HealthChecker, logger logging.Logger) {
	if len(checks) == 0 {
		return
	}
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()

	for {
		for _, c := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Check(checkCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				logger.Warn("health check failed", logging.String("component", c.Name()), logging.Err(err))
			}
			srv.SetServingStatus(c.Name(), err == nil)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// loadConfig reads path when it exists and falls back to defaults plus
// MOLSIEVE_* overrides otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using defaults and environment\n", path)
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

//Personal.AI order the ending
