package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	googleoption "google.golang.org/api/option"

	"github.com/turtacn/MolSieve/internal/config"
)

// googleProvider opens a genai client per call so the caller's context owns
// the connection.
type googleProvider struct {
	apiKey   string
	model    string
	endpoint string
	timeout  time.Duration
}

func newGoogleProvider(apiKey, model string, cfg config.LLMConfig) Provider {
	return &googleProvider{apiKey: apiKey, model: model, endpoint: cfg.BaseURL, timeout: cfg.Timeout}
}

func (p *googleProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	opts := []googleoption.ClientOption{googleoption.WithAPIKey(p.apiKey)}
	if p.endpoint != "" {
		opts = append(opts, googleoption.WithEndpoint(p.endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("google: genai client: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(p.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	maxOut := int32(maxTokens)
	m.MaxOutputTokens = &maxOut
	temp := float32(temperature)
	m.Temperature = &temp
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("google: generate content: %w", err)
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				parts = append(parts, string(t))
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("google: response contained no text content")
	}
	return strings.Join(parts, ""), nil
}

//Personal.AI order the ending
