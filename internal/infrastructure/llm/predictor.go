package llm

import (
	"context"
	"encoding/json"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

// Predictor asks a Provider for a property prediction and decodes it.
type Predictor struct {
	provider    Provider
	temperature float64
	maxTokens   int
	logger      logging.Logger
}

var _ candidate.PropertyPredictor = (*Predictor)(nil)

func NewPredictor(p Provider, temperature float64, maxTokens int, log logging.Logger) *Predictor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Predictor{provider: p, temperature: temperature, maxTokens: maxTokens, logger: log.Named("predictor")}
}

// Predict returns an ErrCodePropertyPredictionFailed error when the provider
// fails or the reply does not decode.  An empty object decodes to an empty
// prediction and is not an error.
func (p *Predictor) Predict(ctx context.Context, name, smiles string) (*candidate.Prediction, error) {
	user, err := renderPredictionPrompt(name, smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePropertyPredictionFailed, "failed to render prediction prompt")
	}
	raw, err := p.provider.Complete(ctx, predictionSystemPrompt, user, p.maxTokens, p.temperature)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePropertyPredictionFailed, "property predictor failed")
	}

	var pred candidate.Prediction
	if err := json.Unmarshal([]byte(extractJSON(raw)), &pred); err != nil {
		p.logger.Warn("undecodable prediction", logging.String("smiles", smiles), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodePropertyPredictionFailed, "prediction reply is not valid JSON")
	}
	return &pred, nil
}

//Personal.AI order the ending
