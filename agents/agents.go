// Package agents provides the LLM plumbing shared by the analyst,
// interview and report agents.
package agents

import (
	"context"
	"fmt"

	"research-assistant/server/llm/providers/shared"
)

const (
	// DefaultModel is used when a caller does not pin one.
	DefaultModel = "gpt-4o"

	defaultMaxTokens = 2000
)

// Options carries the per-run model settings every agent call uses.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Normalize applies defaults for unset fields.
func (o Options) Normalize() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}

func (o Options) completionOptions(format shared.ResponseFormat) shared.CompletionOptions {
	o = o.Normalize()
	return shared.CompletionOptions{
		Model:          o.Model,
		MaxTokens:      o.MaxTokens,
		Temperature:    o.Temperature,
		ResponseFormat: format,
	}
}

// CompleteText performs a plain text completion and returns the content.
func CompleteText(ctx context.Context, llm shared.LLMProvider, opts Options, messages []shared.Message) (string, error) {
	if err := checkContextWindow(llm, opts, messages); err != nil {
		return "", err
	}

	resp, err := llm.Complete(ctx, &shared.CompletionRequest{
		Messages: messages,
		Options:  opts.completionOptions(shared.ResponseFormatText),
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return resp.Content, nil
}

// checkContextWindow rejects a prompt that cannot fit the model's
// context window before spending a provider call.
func checkContextWindow(llm shared.LLMProvider, opts Options, messages []shared.Message) error {
	opts = opts.Normalize()

	caps := llm.GetModelCapabilities(opts.Model)
	if caps.MaxContextTokens <= 0 {
		return nil
	}

	tokens, err := llm.CountTokens(messages, opts.Model)
	if err != nil {
		// Counting is an estimate; let the provider be the judge.
		return nil
	}

	if tokens+opts.MaxTokens > caps.MaxContextTokens {
		return &shared.ProviderError{
			Code: shared.ErrContextLength,
			Message: fmt.Sprintf("prompt of ~%d tokens plus %d completion tokens exceeds the %d token context window",
				tokens, opts.MaxTokens, caps.MaxContextTokens),
		}
	}
	return nil
}
