// Package openai implements the LLMProvider interface on top of the
// OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"research-assistant/server/llm/providers/shared"
	"research-assistant/server/llm/providers/transport"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	OrgID   string
	// RetryMax and RetryBackoff tune the transport client; zero values
	// use the transport defaults.
	RetryMax     int
	RetryBackoff time.Duration
}

// Provider implements the unified LLMProvider interface for OpenAI
type Provider struct {
	client *openai.Client
	config Config
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &shared.ProviderError{
			Code:    shared.ErrAuth,
			Message: "openai: api key is required",
		}
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	if cfg.OrgID != "" {
		openaiConfig.OrgID = cfg.OrgID
	}

	// The SDK authenticates itself; the transport client contributes
	// retries with backoff and rate limiting.
	httpClient := transport.NewHTTPClient(transport.Options{
		RetryMax:     cfg.RetryMax,
		RetryBackoff: cfg.RetryBackoff,
		RPS:          2,
		Burst:        2,
	})
	openaiConfig.HTTPClient = httpClient.StandardClient()

	return &Provider{
		client: openai.NewClientWithConfig(openaiConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string { return "openai" }

// GetModelCapabilities returns capabilities for the specified model
func (p *Provider) GetModelCapabilities(model string) shared.ModelCapabilities {
	// Conservative defaults; could be refined per model name.
	return shared.ModelCapabilities{
		JSONMode:         true,
		SystemMessage:    true,
		MaxContextTokens: 128000,
	}
}

// CountTokens estimates token count for the given messages and model.
// Rough estimate of ~4 characters per token plus per-message overhead.
func (p *Provider) CountTokens(messages []shared.Message, model string) (int, error) {
	totalTokens := 0
	for _, msg := range messages {
		totalTokens += len(msg.Content) / 4
		totalTokens += 4
	}
	return totalTokens, nil
}

// Complete performs a completion request
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, ToOpenAIRequest(req))
	if err != nil {
		return nil, NormalizeOpenAIError(err)
	}

	out, err := FromOpenAIResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return out, nil
}

// NormalizeOpenAIError converts OpenAI errors to normalized ProviderError
func NormalizeOpenAIError(err error) *shared.ProviderError {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := shared.ErrUnknown
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			code = shared.ErrAuth
		case apiErr.HTTPStatusCode == http.StatusNotFound:
			code = shared.ErrModelNotFound
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			code = shared.ErrRateLimited
		case apiErr.HTTPStatusCode >= 500:
			code = shared.ErrUnavailable
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			if strings.Contains(apiErr.Message, "maximum context length") {
				code = shared.ErrContextLength
			} else {
				code = shared.ErrInvalidRequest
			}
		}
		return &shared.ProviderError{
			Code:       code,
			Message:    apiErr.Message,
			HTTPStatus: apiErr.HTTPStatusCode,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &shared.ProviderError{
			Code:    shared.ErrTimeout,
			Message: err.Error(),
		}
	}

	return shared.NormalizeError(err)
}
