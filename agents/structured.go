package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"research-assistant/server/llm/providers/shared"
)

// CompleteJSON performs a completion in JSON mode and unmarshals the
// content into out. A model that returns malformed JSON gets one
// corrective re-ask before the call fails.
func CompleteJSON(ctx context.Context, llm shared.LLMProvider, opts Options, messages []shared.Message, out any) error {
	if err := checkContextWindow(llm, opts, messages); err != nil {
		return err
	}

	resp, err := llm.Complete(ctx, &shared.CompletionRequest{
		Messages: messages,
		Options:  opts.completionOptions(shared.ResponseFormatJSON),
	})
	if err != nil {
		return fmt.Errorf("structured completion: %w", err)
	}

	if err := decodeJSONContent(resp.Content, out); err == nil {
		return nil
	}

	retry := append(append([]shared.Message{}, messages...),
		shared.Message{Role: shared.RoleAssistant, Content: resp.Content},
		shared.Message{Role: shared.RoleUser, Content: "That was not valid JSON. Respond again with only a valid JSON object."},
	)

	resp, err = llm.Complete(ctx, &shared.CompletionRequest{
		Messages: retry,
		Options:  opts.completionOptions(shared.ResponseFormatJSON),
	})
	if err != nil {
		return fmt.Errorf("structured completion retry: %w", err)
	}

	if err := decodeJSONContent(resp.Content, out); err != nil {
		return fmt.Errorf("structured completion: %w", err)
	}
	return nil
}

// decodeJSONContent unmarshals model output, tolerating markdown code
// fences around the JSON object.
func decodeJSONContent(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
