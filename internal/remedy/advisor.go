// Package remedy turns a detected disease into treatment advice using a hosted
// chat-completion model.
package remedy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/Brownie44l1/plantdoc/internal/metrics"
)

const (
	// NotInitializedWarning is returned when no API key was configured.
	NotInitializedWarning = "⚠️ Advice generator not initialized. Please set your GROQ_API_KEY environment variable."
	// ErrorWarningPrefix starts every message produced for a failed remote call.
	ErrorWarningPrefix = "⚠️ Error generating remedies: "

	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Request carries the top prediction. Confidence is a percentage, not a probability.
type Request struct {
	DiseaseName string
	Confidence  float64
}

// Generator produces Markdown advice. It never fails: problems come back as
// warning text meant for the user.
type Generator interface {
	Generate(ctx context.Context, req Request) string
}

// ChatClient is the part of *openai.Client the advisor needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Advisor is the chat-completion backed Generator. Without a client it stays
// in a degraded state and answers with NotInitializedWarning.
type Advisor struct {
	client  ChatClient
	config  Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewAdvisor builds an OpenAI-compatible client for cfg. A missing API key is
// not an error; the returned advisor is simply unavailable.
func NewAdvisor(cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Advisor {
	cfg.applyDefaults()
	a := &Advisor{config: cfg, logger: logger, metrics: m}
	if cfg.APIKey == "" {
		logger.Warn().Msg("no API key configured, remedy generation disabled")
		return a
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	a.client = openai.NewClientWithConfig(clientConfig)

	logger.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("remedy generator initialized")
	return a
}

// NewAdvisorWithClient wires an existing client, mainly for tests and alternative providers.
func NewAdvisorWithClient(client ChatClient, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Advisor {
	cfg.applyDefaults()
	return &Advisor{client: client, config: cfg, logger: logger, metrics: m}
}

func (a *Advisor) Available() bool {
	return a != nil && a.client != nil
}

func (a *Advisor) Generate(ctx context.Context, req Request) string {
	if a == nil {
		return NotInitializedWarning
	}
	if !a.Available() {
		a.metrics.ObserveAdviceFailure("not_initialized")
		return NotInitializedWarning
	}

	start := time.Now()
	text, err := a.complete(ctx, req)
	a.metrics.ObserveStage("advise", start)
	if err != nil {
		a.logger.Warn().Err(err).Str("disease", req.DiseaseName).Msg("remedy generation failed")
		a.metrics.ObserveAdviceFailure("remote_error")
		return ErrorWarningPrefix + err.Error() + "\n\nPlease check your Groq API key."
	}
	return text
}

func (a *Advisor) complete(ctx context.Context, req Request) (string, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return "", err
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("model returned an empty answer (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return content, nil
}
