// Package providertest contains a canned-response LLMProvider used in
// tests across the repository.
package providertest

import (
	"context"
	"strings"
	"sync"

	"research-assistant/server/llm/providers/shared"
)

// FakeProvider implements shared.LLMProvider for testing. Responses can
// be keyed on a substring of the request (system prompt or any message)
// or queued in order; keyed responses win over the queue.
type FakeProvider struct {
	mu          sync.Mutex
	queue       []*shared.CompletionResponse
	bySubstring []keyedResponse
	errs        []keyedError
	requests    []*shared.CompletionRequest
	caps        *shared.ModelCapabilities
}

type keyedResponse struct {
	substring string
	resp      *shared.CompletionResponse
}

type keyedError struct {
	substring string
	err       error
}

// NewFakeProvider creates a new fake provider for testing
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// Queue appends a response returned in FIFO order when no keyed
// response matches.
func (fp *FakeProvider) Queue(content string) *FakeProvider {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.queue = append(fp.queue, &shared.CompletionResponse{
		Content:    content,
		StopReason: "stop",
		Usage:      shared.TokenUsage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	})
	return fp
}

// Respond registers a response returned whenever any request message
// contains the given substring.
func (fp *FakeProvider) Respond(substring, content string) *FakeProvider {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.bySubstring = append(fp.bySubstring, keyedResponse{
		substring: substring,
		resp: &shared.CompletionResponse{
			Content:    content,
			StopReason: "stop",
			Usage:      shared.TokenUsage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
		},
	})
	return fp
}

// Fail registers an error returned whenever any request message
// contains the given substring.
func (fp *FakeProvider) Fail(substring string, err error) *FakeProvider {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.errs = append(fp.errs, keyedError{substring: substring, err: err})
	return fp
}

// Complete implements shared.LLMProvider.
func (fp *FakeProvider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.requests = append(fp.requests, req)

	for _, ke := range fp.errs {
		if requestContains(req, ke.substring) {
			return nil, ke.err
		}
	}
	for _, kr := range fp.bySubstring {
		if requestContains(req, kr.substring) {
			return kr.resp, nil
		}
	}
	if len(fp.queue) > 0 {
		resp := fp.queue[0]
		fp.queue = fp.queue[1:]
		return resp, nil
	}

	return &shared.CompletionResponse{Content: "ok", StopReason: "stop"}, nil
}

// CountTokens implements shared.LLMProvider.
func (fp *FakeProvider) CountTokens(messages []shared.Message, model string) (int, error) {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total, nil
}

// WithCapabilities overrides the reported model capabilities.
func (fp *FakeProvider) WithCapabilities(caps shared.ModelCapabilities) *FakeProvider {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.caps = &caps
	return fp
}

// GetModelCapabilities implements shared.LLMProvider.
func (fp *FakeProvider) GetModelCapabilities(model string) shared.ModelCapabilities {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.caps != nil {
		return *fp.caps
	}
	return shared.ModelCapabilities{JSONMode: true, SystemMessage: true, MaxContextTokens: 128000}
}

// Name implements shared.LLMProvider.
func (fp *FakeProvider) Name() string { return "fake" }

// CallCount returns the number of Complete calls made.
func (fp *FakeProvider) CallCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.requests)
}

// Requests returns a copy of the recorded requests.
func (fp *FakeProvider) Requests() []*shared.CompletionRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]*shared.CompletionRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (fp *FakeProvider) LastRequest() *shared.CompletionRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if len(fp.requests) == 0 {
		return nil
	}
	return fp.requests[len(fp.requests)-1]
}

func requestContains(req *shared.CompletionRequest, substring string) bool {
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, substring) {
			return true
		}
	}
	return false
}
