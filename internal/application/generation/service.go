package generation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/internal/infrastructure/storage/archive"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// Service defines the generation use cases.
type Service interface {
	Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error)
	GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error)
	ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error)
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// Deps collects the collaborators of NewService.  Repo, Archive and Events
// are optional.
type Deps struct {
	Orchestrator *Orchestrator
	Pipeline     *Pipeline
	Repo         candidate.RunRepository
	Archive      archive.Store
	Events       EventPublisher
	Config       config.GenerationConfig
	Logger       logging.Logger
	Metrics      *prometheus.AppMetrics
	Clock        func() time.Time
}

type serviceImpl struct {
	orchestrator *Orchestrator
	pipeline     *Pipeline
	repo         candidate.RunRepository
	archive      archive.Store
	events       EventPublisher
	cfg          config.GenerationConfig
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
	now          func() time.Time
}

var validStrategies = map[string]bool{
	"":                         true,
	ptypes.StrategyGenetic:     true,
	ptypes.StrategyTransformer: true,
	ptypes.StrategyRNN:         true,
	ptypes.StrategyGraphML:     true,
}

// NewService creates a generation Service.
func NewService(d Deps) Service {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Archive == nil {
		d.Archive = archive.Nop{}
	}
	if d.Config.DefaultCount <= 0 {
		d.Config.DefaultCount = config.DefaultGenerationCount
	}
	if d.Config.MaxCount <= 0 {
		d.Config.MaxCount = config.DefaultGenerationMax
	}
	return &serviceImpl{
		orchestrator: d.Orchestrator,
		pipeline:     d.Pipeline,
		repo:         d.Repo,
		archive:      d.Archive,
		events:       d.Events,
		cfg:          d.Config,
		logger:       d.Logger.Named("generation"),
		metrics:      d.Metrics,
		now:          d.Clock,
	}
}

// Generate accumulates, screens and ranks req.Count candidates.  Only caller
// input errors fail the call; the proposal source failing falls back.
func (s *serviceImpl) Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request body is required")
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, errors.InvalidParam("target is required")
	}
	count := req.Count
	if count == 0 {
		count = s.cfg.DefaultCount
	}
	if count < 1 || count > s.cfg.MaxCount {
		return nil, errors.Newf(errors.ErrCodeGenerationCountRange, "count must be between 1 and %d", s.cfg.MaxCount)
	}
	if !validStrategies[req.Strategy] {
		return nil, errors.InvalidParam("unknown strategy " + req.Strategy)
	}

	start := s.now()
	profile := candidate.ProfileFromWire(req.Properties)
	run := s.orchestrator.Run(ctx, ProposalRequest{
		Target:      target,
		Profile:     profile,
		Constraints: candidate.ConstraintsFromWire(req.Constraints),
		Count:       count,
		Seed:        strings.TrimSpace(req.SeedSMILES),
		Strategy:    req.Strategy,
	})
	ranked := s.pipeline.Process(ctx, run.Proposals, profile)
	s.metrics.RecordGenerationRun(outcome(run), s.now().Sub(start))

	resp := &ptypes.GenerateResponse{
		OK:        true,
		Total:     len(ranked),
		Generated: candidate.ToWireList(ranked),
	}

	if s.cfg.Persist || s.events != nil {
		resp.RunID = uuid.New().String()
		detail := &ptypes.RunDetail{
			RunSummary: ptypes.RunSummary{
				ID:          resp.RunID,
				Fingerprint: run.Fingerprint,
				Target:      target,
				Count:       count,
				Strategy:    req.Strategy,
				FellBack:    run.FellBack,
				CacheHit:    run.CacheHit,
				Requests:    run.Requests,
				CreatedAt:   s.now().UTC(),
			},
			Candidates: resp.Generated,
		}
		s.record(ctx, detail)
	}

	s.logger.Info("generation completed",
		logging.String("target", target),
		logging.Int("requested", count),
		logging.Int("returned", resp.Total),
		logging.Int("requests", run.Requests),
		logging.Bool("fell_back", run.FellBack),
		logging.Bool("cache_hit", run.CacheHit))
	return resp, nil
}

// record persists, archives and announces a run.  Every step is best effort.
func (s *serviceImpl) record(ctx context.Context, run *ptypes.RunDetail) {
	if s.cfg.Persist {
		if s.repo != nil {
			if err := s.repo.SaveRun(ctx, run); err != nil {
				s.logger.Warn("failed to persist run", logging.String("run_id", run.ID), logging.Err(err))
			}
		}
		if data, err := json.Marshal(run); err != nil {
			s.logger.Warn("failed to encode run", logging.String("run_id", run.ID), logging.Err(err))
		} else if err := s.archive.Put(ctx, archive.RunKey(run.ID, run.CreatedAt), data, archive.ContentTypeJSON); err != nil {
			s.logger.Warn("failed to archive run", logging.String("run_id", run.ID), logging.Err(err))
		}
	}

	if s.events == nil {
		return
	}
	payload := kafka.GenerationCompletedPayload{
		RunID:       run.ID,
		Target:      run.Target,
		Requested:   run.Count,
		Returned:    len(run.Candidates),
		Requests:    run.Requests,
		FellBack:    run.FellBack,
		CacheHit:    run.CacheHit,
		CompletedAt: run.CreatedAt,
	}
	if len(run.Candidates) > 0 {
		payload.TopScore = run.Candidates[0].Score
	}
	if err := s.events.PublishEvent(ctx, kafka.TopicGenerationCompleted, kafka.EventGenerationCompleted, run.ID, payload); err != nil {
		s.logger.Warn("failed to publish generation event", logging.String("run_id", run.ID), logging.Err(err))
	}
}

func (s *serviceImpl) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "run history is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("run id is required")
	}
	return s.repo.GetRun(ctx, id)
}

func (s *serviceImpl) ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error) {
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "run history is not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRuns(ctx, limit, offset)
}

func outcome(r *Run) string {
	switch {
	case r.CacheHit:
		return prometheus.OutcomeCache
	case r.FellBack:
		return prometheus.OutcomeFallback
	default:
		return prometheus.OutcomeProvider
	}
}

//Personal.AI order the ending
