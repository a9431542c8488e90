// Package llm talks to hosted language models.  It supplies the proposal
// source used by generation runs and the property predictor used by both
// generation and the predict-properties endpoint.
package llm

import (
	"context"
	"os"
	"strings"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

// Provider is one chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// Provider names accepted in config.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderNone      = "none"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    config.DefaultLLMModel,
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderGoogle:    "gemini-1.5-pro",
}

var apiKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGoogle:    "GOOGLE_API_KEY",
}

// ErrProviderNotConfigured is returned for provider "none".  Callers treat it
// like any other provider failure and fall back.
var ErrProviderNotConfigured = errors.New(errors.ErrCodeProviderNotConfigured, "no language model provider configured")

// NewProvider builds the backend named by cfg.Provider.
func NewProvider(cfg config.LLMConfig, log logging.Logger) (Provider, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" || name == ProviderNone {
		return nil, ErrProviderNotConfigured
	}
	if _, ok := defaultModels[name]; !ok {
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown llm provider %q", cfg.Provider)
	}

	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(apiKeyEnv[name])
	}
	if key == "" {
		return nil, errors.Newf(errors.ErrCodeProviderNotConfigured, "%s environment variable not set", apiKeyEnv[name])
	}

	model := cfg.Model
	if model == "" || (name != ProviderOpenAI && model == config.DefaultLLMModel) {
		model = defaultModels[name]
	}

	log.Info("llm provider configured", logging.String("provider", name), logging.String("model", model))
	switch name {
	case ProviderOpenAI:
		return newOpenAIProvider(key, model, cfg), nil
	case ProviderAnthropic:
		return newAnthropicProvider(key, model, cfg), nil
	default:
		return newGoogleProvider(key, model, cfg), nil
	}
}

// unavailable is the Provider used when nothing is configured.  Every call
// fails, so proposal runs fall back and predictions use the heuristic.
type unavailable struct{}

func (unavailable) Complete(context.Context, string, string, int, float64) (string, error) {
	return "", ErrProviderNotConfigured
}

// NewProviderOrUnavailable is NewProvider that degrades to an always-failing
// provider instead of returning an error.
func NewProviderOrUnavailable(cfg config.LLMConfig, log logging.Logger) Provider {
	p, err := NewProvider(cfg, log)
	if err != nil {
		if log != nil {
			log.Warn("llm provider unavailable, using fallbacks", logging.Err(err))
		}
		return unavailable{}
	}
	return p
}

//Personal.AI order the ending
