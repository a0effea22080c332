// Package provider wraps the hosted completion API behind the
// domain.Completer port.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultHTTPTimeout = 120 * time.Second

// OpenAI implements domain.Completer for OpenAI-compatible APIs.
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	system      string
	retry       RetryPolicy
	logger      *slog.Logger
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // optional, for OpenAI-compatible endpoints
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Retry        RetryPolicy
	Logger       *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(defaultHTTPTimeout),
		// Retries belong to the explicit policy below, not the SDK.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		system:      cfg.SystemPrompt,
		retry:       cfg.Retry,
		logger:      cfg.Logger,
	}
}

// Complete sends one user message and returns the generated text, trimmed
// of surrounding whitespace. All-or-nothing: no partial text on error.
// Transient failures are retried per the configured policy.
func (o *OpenAI) Complete(ctx context.Context, text string) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if o.system != "" {
		msgs = append(msgs, openai.SystemMessage(o.system))
	}
	msgs = append(msgs, openai.UserMessage(text))

	params := openai.ChatCompletionNewParams{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(o.maxTokens)),
		Temperature: openai.Float(o.temperature),
	}

	var lastErr *CompletionError
	for attempt := 0; attempt <= o.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := o.retry.Backoff(attempt)
			o.logger.Warn("retrying completion", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return "", &CompletionError{Kind: KindTransport, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		resp, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = classify(err)
			if lastErr.Transient() && attempt < o.retry.MaxAttempts {
				o.logger.Warn("completion failed, will retry",
					"kind", lastErr.Kind, "status", lastErr.Status)
				continue
			}
			return "", lastErr
		}

		if len(resp.Choices) == 0 {
			return "", &CompletionError{Kind: KindMalformed, Err: errors.New("no choices in response")}
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", &CompletionError{Kind: KindMalformed, Err: errors.New("empty completion text")}
		}
		return content, nil
	}
	return "", lastErr
}

// Healthy checks that the API is reachable with the configured credential.
func (o *OpenAI) Healthy(ctx context.Context) error {
	if _, err := o.client.Models.List(ctx); err != nil {
		return fmt.Errorf("completion API not reachable: %w", err)
	}
	return nil
}
