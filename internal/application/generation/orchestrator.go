// Package generation runs candidate generation: it accumulates raw proposals
// from a ProposalSource, screens and scores them, and ranks the result.
package generation

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/infrastructure/memo"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSieve/pkg/errors"
)

type (
	ProposalSource    = candidate.ProposalSource
	PropertyPredictor = candidate.PropertyPredictor
	ProposalRequest   = candidate.ProposalRequest
)

// State is a step of one accumulation run.
type State int

const (
	StateAccumulating State = iota
	StateRequesting
	StateParsing
	StateFallback
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "ACCUMULATING"
	case StateRequesting:
		return "REQUESTING"
	case StateParsing:
		return "PARSING"
	case StateFallback:
		return "FALLBACK"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Batch sizing bounds.
const (
	MinBatchSize     = 5
	DefaultBatchSize = 25
)

// Proposal is one decoded entry of a proposal reply.
type Proposal struct {
	SMILES    string `json:"smiles"`
	Rationale string `json:"rationale"`
}

type proposalEnvelope struct {
	Candidates []Proposal `json:"candidates"`
}

// FallbackPool fills the deficit when the proposal source fails.  Every entry
// is a valid structure.
var FallbackPool = [...]Proposal{
	{SMILES: "CC(=O)O", Rationale: "Simple aromatic"},
	{SMILES: "c1ccccc1", Rationale: "Benzene ring"},
	{SMILES: "CC(C)Cc1ccc(cc1)C(C)C(=O)O", Rationale: "Ibuprofen-like"},
	{SMILES: "CC(=O)Nc1ccc(O)cc1", Rationale: "Paracetamol-like"},
	{SMILES: "CN1C=NC2=C1C(=O)N(C(=O)N2C)C", Rationale: "Caffeine-like"},
	{SMILES: "NC(=O)c1ccc(O)cc1", Rationale: "Benzamide derivative"},
	{SMILES: "COc1ccc(cc1)C(C)C", Rationale: "Methoxy aromatic"},
	{SMILES: "CC(C)CC(C)(C)c1ccc(O)cc1", Rationale: "Phenolic compound"},
	{SMILES: "C1=CC=C(C=C1)N", Rationale: "Aniline"},
	{SMILES: "CC(C)C(=O)O", Rationale: "Propionic acid"},
}

// Run is the outcome of one accumulation.
type Run struct {
	Fingerprint string
	Proposals   []Proposal
	FinalState  State
	Requests    int
	FellBack    bool
	CacheHit    bool
	// Cancelled marks a fallback forced by the caller's context.  Such runs
	// are never cached.
	Cancelled bool
}

// BatchSize is min(maxBatch, max(5, count/4)), never more than remaining.
// count/4 == 0 counts as 5.
func BatchSize(count, remaining, maxBatch int) int {
	if maxBatch <= 0 {
		maxBatch = DefaultBatchSize
	}
	per := count / 4
	if per == 0 {
		per = MinBatchSize
	}
	per = min(maxBatch, max(MinBatchSize, per))
	return max(0, min(per, remaining))
}

// Fingerprint identifies a request for memoization.  Every field that reaches
// the prompt is part of the key.
func Fingerprint(req ProposalRequest) string {
	profile, _ := json.Marshal(req.Profile.Wire())
	constraints, _ := json.Marshal(req.Constraints.Wire())
	return memo.Key("gen", req.Target, string(profile), string(constraints), strconv.Itoa(req.Count), req.Seed, req.Strategy)
}

// DecodeProposals bounds the payload between the first '{' and the last '}'
// after trimming backticks, then decodes it.  A reply without candidates is
// a decode failure.
func DecodeProposals(raw string) ([]Proposal, error) {
	s := strings.Trim(strings.TrimSpace(raw), "`")
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i < 0 || j < i {
		return nil, errors.New(errors.ErrCodeProposalDecodeFailed, "proposal reply carries no JSON object")
	}
	var env proposalEnvelope
	if err := json.Unmarshal([]byte(s[i:j+1]), &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProposalDecodeFailed, "proposal reply did not decode")
	}
	if len(env.Candidates) == 0 {
		return nil, errors.New(errors.ErrCodeProposalDecodeFailed, "proposal reply has no candidates")
	}
	return env.Candidates, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Orchestrator
// ─────────────────────────────────────────────────────────────────────────────

// Orchestrator drives a ProposalSource until the requested count is reached.
// Concurrent runs with the same fingerprint share one accumulation.
type Orchestrator struct {
	source   ProposalSource
	cache    memo.Store[[]Proposal]
	maxBatch int
	group    singleflight.Group
	logger   logging.Logger
	metrics  *prometheus.AppMetrics
}

type OrchestratorOption func(*Orchestrator)

func WithMaxBatch(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxBatch = n
		}
	}
}

func WithOrchestratorLogger(log logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if log != nil {
			o.logger = log
		}
	}
}

func WithOrchestratorMetrics(m *prometheus.AppMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator wires a proposal source to a run cache.  A nil cache
// disables memoization.
func NewOrchestrator(source ProposalSource, cache memo.Store[[]Proposal], opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		source:   source,
		cache:    cache,
		maxBatch: DefaultBatchSize,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("orchestrator")
	return o
}

// Run accumulates req.Count proposals.  It never fails: source errors and
// undecodable replies switch to the fallback pool.  A caller that joined a
// shared accumulation whose owner was cancelled accumulates on its own.
func (o *Orchestrator) Run(ctx context.Context, req ProposalRequest) *Run {
	fp := Fingerprint(req)
	if o.cache != nil {
		if cached, ok := o.cache.Get(fp); ok {
			o.logger.Debug("run cache hit", logging.String("fingerprint", fp))
			return &Run{Fingerprint: fp, Proposals: clone(cached), FinalState: StateDone, CacheHit: true}
		}
	}

	v, _, shared := o.group.Do(fp, func() (interface{}, error) {
		return o.accumulateAndStore(ctx, req, fp), nil
	})
	run := v.(*Run)
	if !shared {
		return run
	}
	if run.Cancelled && ctx.Err() == nil {
		o.logger.Debug("shared run was cancelled, accumulating again", logging.String("fingerprint", fp))
		return o.accumulateAndStore(ctx, req, fp)
	}
	cp := *run
	cp.Proposals = clone(run.Proposals)
	return &cp
}

func (o *Orchestrator) accumulateAndStore(ctx context.Context, req ProposalRequest, fp string) *Run {
	run := o.accumulate(ctx, req)
	run.Fingerprint = fp
	if o.cache != nil && !run.Cancelled {
		o.cache.Set(fp, clone(run.Proposals))
	}
	return run
}

func (o *Orchestrator) accumulate(ctx context.Context, req ProposalRequest) *Run {
	run := &Run{}
	results := make([]Proposal, 0, max(req.Count, 0))
	var raw string

	state := StateAccumulating
	for state != StateDone {
		switch state {
		case StateAccumulating:
			switch {
			case len(results) >= req.Count:
				state = StateDone
			case ctx.Err() != nil:
				o.logger.Warn("run cancelled, filling from fallback pool", logging.Err(ctx.Err()))
				run.Cancelled = true
				state = StateFallback
			default:
				state = StateRequesting
			}

		case StateRequesting:
			batch := req
			batch.Count = BatchSize(req.Count, req.Count-len(results), o.maxBatch)
			var err error
			raw, err = o.source.Propose(ctx, batch)
			run.Requests++
			o.metrics.RecordProposalRequest(err == nil)
			if err != nil {
				o.logger.Warn("proposal source failed", logging.Int("request", run.Requests), logging.Err(err))
				run.Cancelled = ctx.Err() != nil
				state = StateFallback
				continue
			}
			state = StateParsing

		case StateParsing:
			proposals, err := DecodeProposals(raw)
			if err != nil {
				o.logger.Warn("proposal reply rejected", logging.Int("request", run.Requests), logging.Err(err))
				state = StateFallback
				continue
			}
			results = append(results, proposals...)
			state = StateAccumulating

		case StateFallback:
			run.FellBack = true
			for len(results) < req.Count {
				results = append(results, FallbackPool[len(results)%len(FallbackPool)])
			}
			state = StateDone
		}
	}

	if len(results) > req.Count {
		results = results[:max(req.Count, 0)]
	}
	run.Proposals = results
	run.FinalState = StateDone
	o.logger.Debug("run accumulated",
		logging.Int("count", len(results)),
		logging.Int("requests", run.Requests),
		logging.Bool("fell_back", run.FellBack),
		logging.Bool("cancelled", run.Cancelled))
	return run
}

func clone(ps []Proposal) []Proposal {
	return append([]Proposal(nil), ps...)
}

//Personal.AI order the ending
