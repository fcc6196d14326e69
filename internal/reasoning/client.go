// Package reasoning wraps the external reasoning-model collaborator behind
// narrow methods the engine consumes. Every call is bounded by a timeout;
// transport failures and unparsable output are distinguishable so callers
// can pick the right fallback.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/grammar"
)

// Config holds reasoning client configuration.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
}

// DefaultConfig returns defaults suitable for the hosted API.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4o-mini",
		RequestTimeout: 20 * time.Second,
	}
}

// Client is an OpenAI-compatible reasoning-model client.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure Client satisfies the analyzer's model dependency.
var _ grammar.ModelAnalyzer = (*Client)(nil)

// NewClient creates a reasoning client. The API key must be set; wiring
// without a key is the caller's signal to run rule-only.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning model API key not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(options...)

	logger.Info("Reasoning model client initialized", "model", cfg.Model)

	return &Client{
		client:  &client,
		model:   cfg.Model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

// Complete sends one prompt round-trip and returns the raw text reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText, contextSummary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 3)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	if contextSummary != "" {
		messages = append(messages, openai.SystemMessage("Conversation context: "+contextSummary))
	}
	messages = append(messages, openai.UserMessage(userText))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w: %w", domain.ErrExternalService, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion: %w: empty response", domain.ErrExternalService)
	}
	return completion.Choices[0].Message.Content, nil
}

// AnalyzeGrammar asks the model for structured language feedback on one
// learner message. Transport failures surface as ErrExternalService;
// schema violations as ErrUnparsableResponse. Callers treat both as "skip
// the model contribution".
func (c *Client) AnalyzeGrammar(ctx context.Context, text string, level domain.Proficiency, topic string) (*grammar.ModelAnalysis, error) {
	userPrompt := fmt.Sprintf(
		"Learner level: %s\nConversation topic: %s\nLearner message:\n%s",
		level, topic, text,
	)

	raw, err := c.Complete(ctx, grammarAnalysisPrompt, userPrompt, "")
	if err != nil {
		return nil, err
	}

	analysis, err := parseGrammarPayload(raw, len(text))
	if err != nil {
		c.logger.Warn("Discarding unparsable grammar analysis", "error", err)
		return nil, err
	}
	return analysis, nil
}
