// Package screening provides the application-level service for structure
// validation, batch validation and property prediction.  It sits between the
// HTTP/gRPC handlers or the Kafka worker and the screening domain.
package screening

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	domainScreen "github.com/turtacn/MolSieve/internal/domain/screening"
	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// PredictThrottleKey is the throttle bucket shared by every prediction call.
const PredictThrottleKey = "predict-properties"

// Service defines the screening use cases.
type Service interface {
	ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error)
	BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error)
	PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error)
	HandleBatchJob(ctx context.Context, msg *kafka.Message) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// Deps collects the collaborators of NewService.  Predictor, Cache, Throttle
// and Events are optional.
type Deps struct {
	Reporter  *domainScreen.Reporter
	Validator domainScreen.ParsingValidator
	Predictor candidate.PropertyPredictor
	Cache     memo.Store[*candidate.Prediction]
	Throttle  memo.Limiter
	Events    EventPublisher
	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
	Clock     func() time.Time
}

type serviceImpl struct {
	reporter  *domainScreen.Reporter
	validator domainScreen.ParsingValidator
	predictor candidate.PropertyPredictor
	cache     memo.Store[*candidate.Prediction]
	throttle  memo.Limiter
	events    EventPublisher
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	now       func() time.Time
}

// NewService creates a screening Service.
func NewService(d Deps) Service {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &serviceImpl{
		reporter:  d.Reporter,
		validator: d.Validator,
		predictor: d.Predictor,
		cache:     d.Cache,
		throttle:  d.Throttle,
		events:    d.Events,
		logger:    d.Logger.Named("screening"),
		metrics:   d.Metrics,
		now:       d.Clock,
	}
}

// ValidateStructure returns the full report.  Only an empty input is an
// error; an unparsable one is reported with valid=false.
func (s *serviceImpl) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, errors.InvalidParam("SMILES is required for structure validation")
	}
	rep := s.reporter.Validate(smiles)
	s.metrics.RecordValidation(rep.Valid)
	return rep, nil
}

func (s *serviceImpl) BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	out, err := s.reporter.BatchValidate(items)
	if err != nil {
		return nil, err
	}
	for _, item := range out {
		s.metrics.RecordValidation(item.Valid)
	}
	return &ptypes.BatchValidateResponse{Total: len(out), Validated: out}, nil
}

// PredictProperties asks the predictor for name and smiles.  Successful
// predictions are cached; a failed or empty prediction yields the heuristic
// record, which is never cached.
func (s *serviceImpl) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	if req == nil || strings.TrimSpace(req.Molecule) == "" {
		return nil, errors.InvalidParam("molecule is required")
	}
	name := strings.TrimSpace(req.Molecule)
	smiles := strings.TrimSpace(req.SMILES)

	if s.throttle != nil && !s.throttle.Allow(PredictThrottleKey) {
		s.metrics.RecordThrottleDenied(PredictThrottleKey)
		return nil, errors.RateLimit("Rate limit exceeded").
			WithDetail(fmt.Sprintf("retry after %s", s.throttle.ResetAt(PredictThrottleKey).UTC().Format(time.RFC3339)))
	}

	if smiles != "" && s.validator != nil {
		if _, _, err := s.validator.ValidateParsed(smiles); err != nil {
			return nil, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "Invalid SMILES: %s", smiles)
		}
	}

	result := &ptypes.PredictionResult{Success: true, Molecule: name, SMILES: smiles}
	key := memo.Key("props", name, smiles)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheAccess("prediction", true)
			result.Predictions = cached
			result.Cached = true
			return result, nil
		}
		s.metrics.RecordCacheAccess("prediction", false)
	}

	var (
		pred *candidate.Prediction
		err  error
	)
	if s.predictor != nil {
		pred, err = s.predictor.Predict(ctx, name, smiles)
	}
	if s.predictor == nil || err != nil || pred.IsEmpty() {
		s.metrics.RecordPredictionFailure()
		reason := "model unavailable"
		if err != nil {
			reason = err.Error()
			s.logger.Warn("property prediction failed, using heuristic",
				logging.String("molecule", name), logging.Err(err))
		}
		result.Predictions = HeuristicPrediction(reason)
		result.Heuristic = true
		result.Error = "heuristic"
		return result, nil
	}

	if s.cache != nil {
		s.cache.Set(key, pred)
	}
	result.Predictions = pred
	return result, nil
}

// HandleBatchJob validates a BatchJob and publishes a BatchCompleted event.
// An oversized job is reported in the event.  An undecodable message is
// returned as an error so the consumer dead-letters it.
func (s *serviceImpl) HandleBatchJob(ctx context.Context, msg *kafka.Message) error {
	job, err := kafka.DecodeBatchJob(msg)
	if err != nil {
		s.metrics.RecordBatchJob(false)
		return err
	}

	payload := kafka.BatchCompletedPayload{JobID: job.JobID, Total: len(job.SMILES)}
	items, err := s.reporter.BatchValidateStrings(job.SMILES)
	if err != nil {
		payload.Error = err.Error()
	}
	payload.Items = items
	for _, item := range items {
		s.metrics.RecordValidation(item.Valid)
		if item.Valid {
			payload.Valid++
		}
	}
	payload.CompletedAt = s.now().UTC()
	s.metrics.RecordBatchJob(err == nil)

	s.logger.Info("batch job processed",
		logging.String("job_id", job.JobID),
		logging.Int("total", payload.Total),
		logging.Int("valid", payload.Valid))

	if s.events == nil {
		return nil
	}
	if err := s.events.PublishEvent(ctx, kafka.TopicBatchCompleted, kafka.EventBatchCompleted, job.JobID, payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to publish batch result")
	}
	return nil
}

// HeuristicPrediction is the placeholder record returned when no model
// answer is available.
func HeuristicPrediction(reason string) *candidate.Prediction {
	tox, sol, drug, bio := 30.0, 50.0, 50.0, 50.0
	pass, cross := true, false
	return &candidate.Prediction{
		Toxicity: &ptypes.ToxicityPrediction{
			Score:       &tox,
			Level:       "medium",
			Explanation: "Heuristic placeholder: " + reason + ".",
		},
		Solubility:      &ptypes.SolubilityPrediction{Score: &sol, Details: "Heuristic placeholder."},
		DrugLikeness:    &ptypes.DrugLikenessPrediction{Score: &drug, Passes: &pass},
		Bioavailability: &ptypes.BioavailabilityPrediction{Percentage: &bio, Explanation: "Heuristic placeholder."},
		BBBPenetration:  &ptypes.BBBPrediction{CanCross: &cross, Confidence: "low"},
		LipinskiRules:   &ptypes.LipinskiPrediction{Passes: &pass, Violations: []string{}},
	}
}

//Personal.AI order the ending
