// Package summarize generates clinical-note summaries from transcripts using
// a chat-completion model served through an OpenAI-compatible API.
package summarize

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-r1:free"

	// Placeholder persisted when the model returns no content. Losing the
	// summary must never lose the transcript, so this is not an error.
	NoSummaryPlaceholder = "[No summary]"

	maxSummaryTokens = 8000
)

// Client wraps the chat-completion API used for summarization.
type Client struct {
	client openai.Client
	model  string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	baseURL string
	model   string
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// NewClient creates a summarization client. The API key must be non-empty.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("summarization API key is not configured")
	}

	cfg := config{
		baseURL: defaultBaseURL,
		model:   defaultModel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(cfg.baseURL),
		),
		model: cfg.model,
	}, nil
}

// Summarize sends the system prompt and transcript as a two-message
// conversation with deterministic sampling. A response without content yields
// the placeholder rather than an error.
func (c *Client) Summarize(ctx context.Context, systemPrompt, transcript string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("TRANSCRIPT:\n\n" + transcript),
		},
		Temperature: openai.Float(0.0),
		MaxTokens:   openai.Int(maxSummaryTokens),
		Stop: openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String("```"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call summarization service: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return NoSummaryPlaceholder, nil
	}

	return completion.Choices[0].Message.Content, nil
}
