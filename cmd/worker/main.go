// Command worker consumes batch validation jobs from Kafka and publishes
// their results.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolSieve/internal/app"
	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/MolSieve/internal/interfaces/http"
	"github.com/turtacn/MolSieve/internal/interfaces/http/handlers"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
	shutdownTimeout         = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	ensureTopics := flag.Bool("ensure-topics", false, "create the MolSieve topics before consuming")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled {
		fmt.Fprintln(os.Stderr, "kafka.enabled must be true for the worker")
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *healthPort, *ensureTopics, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, healthPort int, ensureTopics bool, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting MolSieve worker",
		logging.String("version", config.Version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("group", cfg.Kafka.ConsumerGroup))

	if ensureTopics {
		if err := createTopics(ctx, cfg.Kafka.Brokers, logger); err != nil {
			return err
		}
	}

	a, err := app.New(ctx, cfg, logger, app.WithSource("worker"))
	if err != nil {
		return fmt.Errorf("assemble services: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release resources", logging.Err(err))
		}
	}()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, kafka.TopicBatchRequested), logger)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	consumer.Subscribe(kafka.TopicBatchRequested, a.Screening.HandleBatchJob)
	a.Collector.MustRegister(consumerCollectors(consumer)...)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("failed to close consumer", logging.Err(err))
		}
	}()

	httpCfg := cfg.Server.HTTP
	httpCfg.Port = healthPort
	healthSrv := httpserver.NewServer(httpCfg, healthRouter(a, consumer), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(healthSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down worker")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return healthSrv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := consumer.Stats()
	logger.Info("worker stopped",
		logging.Int64("consumed", st.Consumed),
		logging.Int64("processed", st.Processed),
		logging.Int64("dead_lettered", st.DeadLettered))
	return nil
}

// healthRouter serves probes, metrics and the consumer counters.
func healthRouter(a *app.App, consumer *kafka.Consumer) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.NewHealthHandler(config.Version, a.Checks...).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(a.Collector.Handler()))
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, consumer.Stats())
	})
	return r
}

func createTopics(ctx context.Context, brokers []string, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(brokers, logger)
	if err != nil {
		return fmt.Errorf("connect topic manager: %w", err)
	}
	defer tm.Close()

	replication := 1
	if len(brokers) >= 3 {
		replication = 3
	}
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(replication))
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using defaults and environment\n", path)
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

// consumerCollectors exports the consumer counters as scrape-time series.
func consumerCollectors(c *kafka.Consumer) []promclient.Collector {
	opts := func(name, help string) promclient.GaugeOpts {
		return promclient.GaugeOpts{Namespace: app.MetricsNamespace, Subsystem: "consumer", Name: name, Help: help}
	}
	return []promclient.Collector{
		promclient.NewGaugeFunc(opts("lag", "Messages behind the partition head"), func() float64 {
			return float64(c.Stats().Lag)
		}),
		promclient.NewCounterFunc(promclient.CounterOpts(opts("dead_lettered_total", "Jobs routed to the dead-letter topic")), func() float64 {
			return float64(c.Stats().DeadLettered)
		}),
		promclient.NewCounterFunc(promclient.CounterOpts(opts("retried_total", "Handler retries")), func() float64 {
			return float64(c.Stats().Retried)
		}),
	}
}

//Personal.AI order the ending
