package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	"research-assistant/server/llm/providers/shared"
)

// ToOpenAIRequest converts a shared completion request to the go-openai
// request shape.
func ToOpenAIRequest(req *shared.CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	out := openai.ChatCompletionRequest{
		Model:       req.Options.Model,
		Messages:    messages,
		MaxTokens:   req.Options.MaxTokens,
		Temperature: req.Options.Temperature,
		TopP:        req.Options.TopP,
		Stop:        req.Options.Stop,
	}

	if req.Options.ResponseFormat == shared.ResponseFormatJSON {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return out
}

// FromOpenAIResponse converts a go-openai response to the shared shape.
func FromOpenAIResponse(resp openai.ChatCompletionResponse) (*shared.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	choice := resp.Choices[0]
	return &shared.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: shared.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
