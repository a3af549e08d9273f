package openai

import (
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/server/llm/providers/shared"
)

func TestToOpenAIRequest(t *testing.T) {
	req := &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleSystem, Content: "You generate analysts."},
			{Role: shared.RoleUser, Content: "Generate the set of analysts."},
		},
		Options: shared.CompletionOptions{
			Model:       "gpt-4o",
			MaxTokens:   500,
			Temperature: 0.2,
		},
	}

	out := ToOpenAIRequest(req)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "gpt-4o", out.Model)
	assert.Equal(t, 500, out.MaxTokens)
	assert.Nil(t, out.ResponseFormat)
}

func TestToOpenAIRequestJSONMode(t *testing.T) {
	req := &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "x"}},
		Options: shared.CompletionOptions{
			Model:          "gpt-4o",
			ResponseFormat: shared.ResponseFormatJSON,
		},
	}

	out := ToOpenAIRequest(req)
	require.NotNil(t, out.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, out.ResponseFormat.Type)
}

func TestFromOpenAIResponse(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message:      openai.ChatCompletionMessage{Content: "hello"},
				FinishReason: openai.FinishReasonStop,
			},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	out, err := FromOpenAIResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, "stop", out.StopReason)
	assert.Equal(t, 15, out.Usage.TotalTokens)
}

func TestFromOpenAIResponseNoChoices(t *testing.T) {
	_, err := FromOpenAIResponse(openai.ChatCompletionResponse{})
	assert.Error(t, err)
}

func TestNormalizeOpenAIError(t *testing.T) {
	tests := []struct {
		name     string
		err      *openai.APIError
		expected shared.ErrorCode
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, shared.ErrAuth},
		{"model missing", &openai.APIError{HTTPStatusCode: http.StatusNotFound}, shared.ErrModelNotFound},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, shared.ErrRateLimited},
		{"server down", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, shared.ErrUnavailable},
		{"context length", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "This model's maximum context length is 128000 tokens"}, shared.ErrContextLength},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "missing field"}, shared.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := NormalizeOpenAIError(tt.err)
			require.NotNil(t, pe)
			assert.Equal(t, tt.expected, pe.Code)
		})
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(Config{})
	require.Error(t, err)

	var pe *shared.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, shared.ErrAuth, pe.Code)
}
