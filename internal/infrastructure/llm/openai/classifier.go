// Package openai provides a Classifier implementation backed by OpenAI chat completions.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
)

// ClassifierName identifies this backend in history entries and logs.
const ClassifierName = "openai"

const classificationPrompt = `You assess whether a piece of text reads like credible news reporting or like fake/sensationalist news.

Consider sourcing ("according to", named studies, data), sensational wording ("breaking", "shocking", "exposed"), verifiability and tone.

Return ONLY a valid JSON object, no other text:
{"label": "real" or "fake", "confidence": integer 0-100, "signals": [short phrases from the text that drove the decision]}

Example:
Input: "SHOCKING secret EXPOSED: doctors hate this one trick!"
Output: {"label": "fake", "confidence": 92, "signals": ["shocking", "secret", "exposed"]}`

// Classifier implements ports.Classifier using OpenAI.
type Classifier struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewClassifier creates a new OpenAI classifier.
func NewClassifier(cfg config.LLMConfig) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Classifier{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		limiter: newLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// newLimiter builds the request limiter. A non-positive rate disables limiting.
func newLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Name returns the classifier name.
func (c *Classifier) Name() string {
	return ClassifierName
}

// Classify asks the model for a label and confidence.
func (c *Classifier) Classify(ctx context.Context, text string) (entities.Verdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return entities.Verdict{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: classificationPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return entities.Verdict{}, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return entities.Verdict{}, errors.New("no response from OpenAI")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

// rawVerdict is the JSON structure returned by the model.
type rawVerdict struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

// parseVerdict converts the model output into a verdict.
func parseVerdict(content string) (entities.Verdict, error) {
	content = cleanJSONResponse(content)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return entities.Verdict{}, fmt.Errorf("parsing verdict JSON: %w (response: %s)", err, content)
	}

	label, err := entities.ParseLabel(raw.Label)
	if err != nil {
		return entities.Verdict{}, err
	}
	if !label.IsSet() {
		return entities.Verdict{}, errors.New("model returned no label")
	}

	return entities.Verdict{
		Label:      label,
		Confidence: clampConfidence(raw.Confidence),
		Signals:    raw.Signals,
	}, nil
}

// clampConfidence rounds to an integer in [0, 100]. Values strictly between
// 0 and 1 are treated as fractions, since models sometimes answer 0.85 for
// 85%. A whole 1 means 1%.
func clampConfidence(v float64) int {
	if v > 0 && v < 1 {
		v *= 100
	}
	switch {
	case v < entities.MinConfidence:
		return entities.MinConfidence
	case v > entities.MaxConfidence:
		return entities.MaxConfidence
	default:
		return int(v + 0.5)
	}
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
