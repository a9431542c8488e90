package generation

import (
	"context"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/domain/screening"
	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
)

// Pipeline turns raw proposals into ranked candidates.  Gates run in order:
// validation, safety and synthesizability, property prediction for the
// survivors, scoring, then dedup and rank.
type Pipeline struct {
	validator screening.ParsingValidator
	screen    *screening.SafetyScreen
	assessor  *screening.Assessor
	predictor PropertyPredictor
	cache     memo.Store[*candidate.Prediction]
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
}

type PipelineOption func(*Pipeline)

// WithPredictionCache memoizes successful predictions per structure.
func WithPredictionCache(c memo.Store[*candidate.Prediction]) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

func WithPipelineLogger(log logging.Logger) PipelineOption {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

func WithPipelineMetrics(m *prometheus.AppMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func NewPipeline(validator screening.ParsingValidator, screen *screening.SafetyScreen, assessor *screening.Assessor, predictor PropertyPredictor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		validator: validator,
		screen:    screen,
		assessor:  assessor,
		predictor: predictor,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pipeline")
	return p
}

// Screen builds one candidate per proposal, in proposal order.  An invalid
// structure is kept as filtered and unsynthesizable.  A valid one is
// filtered when it carries any toxicophore or fails the synthesizability
// gate.
func (p *Pipeline) Screen(proposals []Proposal) []*candidate.Candidate {
	out := make([]*candidate.Candidate, 0, len(proposals))
	for _, prop := range proposals {
		c := candidate.NewCandidate(prop.SMILES, prop.Rationale)
		out = append(out, c)

		parsed, canonical, err := p.validator.ValidateParsed(prop.SMILES)
		p.metrics.RecordValidation(err == nil)
		if err != nil {
			c.Synthesizable = false
			c.Reject()
			continue
		}
		c.Valid = true
		c.Canonical = canonical

		res := p.screen.Screen(parsed)
		c.Synthesizable, _ = p.assessor.AssessScreened(prop.SMILES, parsed, res)
		if res.HasToxicophores() || !c.Synthesizable {
			c.Reject()
		}
	}
	return out
}

// Enrich predicts properties for the scorable candidates one at a time and
// scores them.  A prediction failure leaves the candidate without
// properties and with a zero score.
func (p *Pipeline) Enrich(ctx context.Context, cs []*candidate.Candidate, desired candidate.DesiredProfile) {
	for _, c := range cs {
		if !c.Scorable() {
			continue
		}
		pred := p.predict(ctx, c)
		c.Properties = pred
		c.Score = candidate.Score(pred, desired)
	}
}

func (p *Pipeline) predict(ctx context.Context, c *candidate.Candidate) *candidate.Prediction {
	if p.predictor == nil {
		return nil
	}
	key := memo.Key("props", c.Structure, c.Canonical)
	if p.cache != nil {
		if pred, ok := p.cache.Get(key); ok {
			p.metrics.RecordCacheAccess("prediction", true)
			return pred
		}
		p.metrics.RecordCacheAccess("prediction", false)
	}

	pred, err := p.predictor.Predict(ctx, c.Structure, c.Canonical)
	if err != nil || pred.IsEmpty() {
		p.metrics.RecordPredictionFailure()
		p.logger.Warn("property prediction failed",
			logging.String("smiles", c.Structure), logging.Err(err))
		return nil
	}
	if p.cache != nil {
		p.cache.Set(key, pred)
	}
	return pred
}

// Process runs Screen, Enrich and RankAndDedupe.
func (p *Pipeline) Process(ctx context.Context, proposals []Proposal, desired candidate.DesiredProfile) []*candidate.Candidate {
	cs := p.Screen(proposals)
	p.Enrich(ctx, cs, desired)
	return candidate.RankAndDedupe(cs)
}

//Personal.AI order the ending
