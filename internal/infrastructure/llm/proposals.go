package llm

import (
	"context"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

// ProposalSource asks a Provider for candidate structures.  The reply is
// returned verbatim; the orchestrator owns decoding.
type ProposalSource struct {
	provider    Provider
	temperature float64
	maxTokens   int
	logger      logging.Logger
}

var _ candidate.ProposalSource = (*ProposalSource)(nil)

func NewProposalSource(p Provider, temperature float64, maxTokens int, log logging.Logger) *ProposalSource {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ProposalSource{provider: p, temperature: temperature, maxTokens: maxTokens, logger: log.Named("proposals")}
}

func (s *ProposalSource) Propose(ctx context.Context, req candidate.ProposalRequest) (string, error) {
	user, err := renderProposalPrompt(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeProposalSourceFailed, "failed to render proposal prompt")
	}
	raw, err := s.provider.Complete(ctx, proposalSystemPrompt, user, s.maxTokens, s.temperature)
	if err != nil {
		s.logger.Warn("proposal request failed", logging.String("target", req.Target), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeProposalSourceFailed, "proposal source failed")
	}
	s.logger.Debug("proposal reply received", logging.Int("want", req.Count), logging.Int("bytes", len(raw)))
	return raw, nil
}

//Personal.AI order the ending
