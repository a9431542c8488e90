// Package app assembles the screening and generation services from a Config.
// The API server, the worker and the in-process CLI share this wiring.
package app

import (
	"context"
	"errors"

	"github.com/turtacn/MolSieve/internal/application/generation"
	"github.com/turtacn/MolSieve/internal/application/screening"
	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/domain/molecule"
	domainScreen "github.com/turtacn/MolSieve/internal/domain/screening"
	"github.com/turtacn/MolSieve/internal/infrastructure/chem"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/redis"
	"github.com/turtacn/MolSieve/internal/infrastructure/llm"
	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/internal/infrastructure/storage/archive"
	"github.com/turtacn/MolSieve/internal/interfaces/http/handlers"
)

// MetricsNamespace prefixes every exported series.
const MetricsNamespace = "molsieve"

// App holds the assembled services and the resources they own.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Screening  screening.Service
	Generation generation.Service

	// HTTPLimiter is nil when server.http.requests_per_minute is 0.
	HTTPLimiter memo.Limiter
	// Checks feed /readyz and the gRPC health service.
	Checks []handlers.HealthChecker

	closers []func() error
}

type options struct {
	source    string
	predictor candidate.PropertyPredictor
	proposals candidate.ProposalSource
}

// Option adjusts New.
type Option func(*options)

// WithSource names the process in published event envelopes.
func WithSource(name string) Option {
	return func(o *options) { o.source = name }
}

// WithModel replaces the LLM-backed proposal source and predictor.
func WithModel(proposals candidate.ProposalSource, predictor candidate.PropertyPredictor) Option {
	return func(o *options) {
		o.proposals = proposals
		o.predictor = predictor
	}
}

// New connects the configured backends and builds both services.  Optional
// backends (database, Redis, Kafka, archive) are only dialed when enabled.
// On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (a *App, err error) {
	o := options{source: "molsieve"}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	a = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	a.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            MetricsNamespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, err
	}
	a.Metrics = prometheus.NewAppMetrics(a.Collector)

	stores, err := a.memoStores(cfg)
	if err != nil {
		return nil, err
	}

	tk, err := chem.NewToolkit(chem.WithLogger(log))
	if err != nil {
		return nil, err
	}
	validator := molecule.NewMemoizedValidator(
		molecule.NewValidator(tk, molecule.WithMaxLength(cfg.Screening.MaxStructureLength)),
		stores.canonical,
	)
	calc := molecule.NewToolkitCalculator(tk)
	screen := domainScreen.NewSafetyScreen(tk, log)
	assessor := domainScreen.NewAssessor(calc, screen)
	reporter := domainScreen.NewReporter(validator, calc, screen, assessor,
		domainScreen.WithMaxBatchSize(cfg.Screening.MaxBatchSize),
		domainScreen.WithLogger(log))

	if o.proposals == nil || o.predictor == nil {
		provider := llm.NewProviderOrUnavailable(cfg.LLM, log)
		if o.proposals == nil {
			o.proposals = llm.NewProposalSource(provider, cfg.LLM.GenerationTemperature, cfg.LLM.GenerationMaxTokens, log)
		}
		if o.predictor == nil {
			o.predictor = llm.NewPredictor(provider, cfg.LLM.PredictionTemperature, cfg.LLM.PredictionMaxTokens, log)
		}
	}

	screenDeps := screening.Deps{
		Reporter:  reporter,
		Validator: validator,
		Predictor: o.predictor,
		Cache:     stores.predictions,
		Throttle:  stores.predictThrottle,
		Logger:    log,
		Metrics:   a.Metrics,
	}
	genDeps := generation.Deps{
		Orchestrator: generation.NewOrchestrator(o.proposals, stores.proposals,
			generation.WithMaxBatch(cfg.Generation.MaxBatch),
			generation.WithOrchestratorLogger(log),
			generation.WithOrchestratorMetrics(a.Metrics)),
		Pipeline: generation.NewPipeline(validator, screen, assessor, o.predictor,
			generation.WithPredictionCache(stores.predictions),
			generation.WithPipelineLogger(log),
			generation.WithPipelineMetrics(a.Metrics)),
		Config:  cfg.Generation,
		Logger:  log,
		Metrics: a.Metrics,
	}

	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		a.Checks = append(a.Checks, handlers.CheckFunc{Label: "database", Fn: conn.HealthCheck})
		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(cfg.Database, log).Up(); err != nil {
				return nil, err
			}
		}
		genDeps.Repo = repositories.NewRunRepository(conn, log)
	}

	store, err := archive.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	genDeps.Archive = store
	if _, nop := store.(archive.Nop); !nop {
		a.Checks = append(a.Checks, handlers.CheckFunc{Label: "archive", Fn: store.Ping})
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka, o.source), log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		screenDeps.Events = producer
		genDeps.Events = producer
	}

	a.Screening = screening.NewService(screenDeps)
	a.Generation = generation.NewService(genDeps)
	return a, nil
}

type memoStores struct {
	canonical       memo.Store[string]
	predictions     memo.Store[*candidate.Prediction]
	proposals       memo.Store[[]generation.Proposal]
	predictThrottle memo.Limiter
}

// memoStores builds the caches and throttles for the configured backend.
// The Redis backend shares them across replicas.
func (a *App) memoStores(cfg *config.Config) (memoStores, error) {
	sc := cfg.Screening
	perMinute := cfg.Server.HTTP.RequestsPerMinute

	if sc.MemoBackend == "redis" {
		client, err := redis.NewClient(cfg.Redis, a.Logger)
		if err != nil {
			return memoStores{}, err
		}
		a.closers = append(a.closers, client.Close)
		a.Checks = append(a.Checks, handlers.CheckFunc{Label: "redis", Fn: client.Ping})
		if perMinute > 0 {
			a.HTTPLimiter = redis.NewThrottle(client, perMinute, sc.ThrottleWindow, a.Logger)
		}
		return memoStores{
			canonical:       redis.NewCache[string](client, sc.CacheTTL, a.Logger),
			predictions:     redis.NewCache[*candidate.Prediction](client, sc.CacheTTL, a.Logger),
			proposals:       redis.NewCache[[]generation.Proposal](client, sc.CacheTTL, a.Logger),
			predictThrottle: redis.NewThrottle(client, sc.PredictPerMinute, sc.ThrottleWindow, a.Logger),
		}, nil
	}

	capacity := memo.WithCapacity(sc.CacheCapacity)
	window := memo.WithWindow(sc.ThrottleWindow)
	s := memoStores{
		canonical:       memo.New[string](sc.CacheTTL, capacity),
		predictions:     memo.New[*candidate.Prediction](sc.CacheTTL, capacity),
		proposals:       memo.New[[]generation.Proposal](sc.CacheTTL, capacity),
		predictThrottle: memo.NewThrottle(sc.PredictPerMinute, window),
	}
	a.closers = append(a.closers, s.canonical.Close, s.predictions.Close, s.proposals.Close, s.predictThrottle.Close)
	if perMinute > 0 {
		t := memo.NewThrottle(perMinute, window)
		a.HTTPLimiter = t
		a.closers = append(a.closers, t.Close)
	}
	return s, nil
}

// Close releases every resource New opened, most recent first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

//Personal.AI order the ending
