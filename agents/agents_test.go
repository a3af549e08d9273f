package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/server/llm/providers/providertest"
	"research-assistant/server/llm/providers/shared"
)

func TestOptionsNormalize(t *testing.T) {
	opts := Options{}.Normalize()
	assert.Equal(t, DefaultModel, opts.Model)
	assert.Equal(t, defaultMaxTokens, opts.MaxTokens)

	opts = Options{Model: "gpt-4o-mini", MaxTokens: 100}.Normalize()
	assert.Equal(t, "gpt-4o-mini", opts.Model)
	assert.Equal(t, 100, opts.MaxTokens)
}

func TestCompleteText(t *testing.T) {
	fp := providertest.NewFakeProvider().Queue("the answer")

	out, err := CompleteText(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: "question"},
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)

	req := fp.LastRequest()
	assert.Equal(t, DefaultModel, req.Options.Model)
	assert.Equal(t, shared.ResponseFormatText, req.Options.ResponseFormat)
}

func TestCompleteJSON(t *testing.T) {
	fp := providertest.NewFakeProvider().Queue(`{"search_query": "latest results"}`)

	var out struct {
		SearchQuery string `json:"search_query"`
	}
	err := CompleteJSON(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: "derive a query"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "latest results", out.SearchQuery)
	assert.Equal(t, shared.ResponseFormatJSON, fp.LastRequest().Options.ResponseFormat)
}

func TestCompleteJSONRetriesMalformedOutput(t *testing.T) {
	fp := providertest.NewFakeProvider().
		Queue("sorry, here it is: nope").
		Queue(`{"search_query": "second try"}`)

	var out struct {
		SearchQuery string `json:"search_query"`
	}
	err := CompleteJSON(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: "derive a query"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "second try", out.SearchQuery)
	assert.Equal(t, 2, fp.CallCount())

	// The retry carries the bad reply and a corrective instruction.
	retryReq := fp.LastRequest()
	require.Len(t, retryReq.Messages, 3)
	assert.Equal(t, shared.RoleAssistant, retryReq.Messages[1].Role)
}

func TestCompleteTextRejectsOversizedPrompt(t *testing.T) {
	fp := providertest.NewFakeProvider().
		WithCapabilities(shared.ModelCapabilities{JSONMode: true, SystemMessage: true, MaxContextTokens: 100})

	// ~200 estimated tokens against a 100 token window.
	long := make([]byte, 800)
	for i := range long {
		long[i] = 'a'
	}

	_, err := CompleteText(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: string(long)},
	})
	require.Error(t, err)

	var pe *shared.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, shared.ErrContextLength, pe.Code)
	assert.Equal(t, 0, fp.CallCount(), "oversized prompts must not reach the provider")
}

func TestCompleteJSONRejectsOversizedPrompt(t *testing.T) {
	fp := providertest.NewFakeProvider().
		WithCapabilities(shared.ModelCapabilities{JSONMode: true, SystemMessage: true, MaxContextTokens: 50})

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'b'
	}

	var out struct{}
	err := CompleteJSON(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: string(long)},
	}, &out)
	require.Error(t, err)
	assert.Equal(t, 0, fp.CallCount())
}

func TestCompleteJSONStripsCodeFences(t *testing.T) {
	fp := providertest.NewFakeProvider().Queue("```json\n{\"search_query\": \"fenced\"}\n```")

	var out struct {
		SearchQuery string `json:"search_query"`
	}
	err := CompleteJSON(context.Background(), fp, Options{}, []shared.Message{
		{Role: shared.RoleUser, Content: "derive a query"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "fenced", out.SearchQuery)
}
