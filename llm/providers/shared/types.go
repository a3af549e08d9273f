package shared

import (
	"context"
)

// Role defines the role of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message for LLM providers
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// ResponseFormat defines the format of the response
type ResponseFormat int

const (
	ResponseFormatText ResponseFormat = iota
	ResponseFormatJSON                // strict JSON mode if provider supports it
)

// CompletionOptions defines parameters for LLM completion requests
type CompletionOptions struct {
	Model          string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	Stop           []string
	ResponseFormat ResponseFormat
}

// CompletionRequest represents a request to complete
type CompletionRequest struct {
	Messages []Message
	Options  CompletionOptions
}

// TokenUsage tracks token consumption for billing and monitoring
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse represents the response from an LLM completion
type CompletionResponse struct {
	Content    string
	Usage      TokenUsage
	StopReason string // normalized stop reason (e.g., "stop", "length")
}

// ErrorCode defines normalized error codes across providers
type ErrorCode string

const (
	ErrRateLimited    ErrorCode = "rate_limited"
	ErrTimeout        ErrorCode = "timeout"
	ErrAuth           ErrorCode = "auth"
	ErrInvalidRequest ErrorCode = "invalid_request"
	ErrModelNotFound  ErrorCode = "model_not_found"
	ErrContextLength  ErrorCode = "context_length_exceeded"
	ErrUnavailable    ErrorCode = "service_unavailable"
	ErrUnknown        ErrorCode = "unknown"
)

// ProviderError represents a normalized error from any provider
type ProviderError struct {
	Code    ErrorCode
	Message string
	// Optional: original HTTP status
	HTTPStatus int
}

func (e *ProviderError) Error() string { return e.Message }

// ModelCapabilities defines what features a model supports
type ModelCapabilities struct {
	JSONMode         bool
	SystemMessage    bool
	MaxContextTokens int
}

// LLMProvider defines the unified interface for LLM providers
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	CountTokens(messages []Message, model string) (int, error)
	GetModelCapabilities(model string) ModelCapabilities
	Name() string
}
