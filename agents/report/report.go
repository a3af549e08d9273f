// Package report compiles interview sections into the final research
// report.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"research-assistant/server/agents"
	"research-assistant/server/llm/providers/shared"
	"research-assistant/server/research"
)

// Writer generates the final report from interview sections.
type Writer struct {
	llm  shared.LLMProvider
	opts agents.Options
	log  zerolog.Logger
}

// NewWriter creates a new report writer.
func NewWriter(llm shared.LLMProvider, opts agents.Options, log zerolog.Logger) *Writer {
	return &Writer{
		llm:  llm,
		opts: opts,
		log:  log.With().Str("agent", "report-writer").Logger(),
	}
}

// Write produces the report body, introduction and conclusion for the
// sections and compiles them into the final markdown report. The
// returned Results has the report fields populated; topic, analysts
// and sections are the caller's.
func (w *Writer) Write(ctx context.Context, topic string, sections []string) (*research.Results, error) {
	w.log.Info().Int("sections", len(sections)).Msg("writing final report")

	joined := strings.Join(sections, "\n")

	content, err := w.generateContent(ctx, topic, joined)
	if err != nil {
		return nil, fmt.Errorf("report content: %w", err)
	}

	intro, err := w.generateIntroOrConclusion(ctx, topic, joined, "Write the report introduction")
	if err != nil {
		return nil, fmt.Errorf("report introduction: %w", err)
	}

	conclusion, err := w.generateIntroOrConclusion(ctx, topic, joined, "Write the report conclusion")
	if err != nil {
		return nil, fmt.Errorf("report conclusion: %w", err)
	}

	results := &research.Results{
		Topic:        topic,
		Sections:     sections,
		Introduction: intro,
		Content:      content,
		Conclusion:   conclusion,
		FinalReport:  Compile(intro, content, conclusion),
	}

	w.log.Info().Msg("final report written")
	return results, nil
}

func (w *Writer) generateContent(ctx context.Context, topic, sections string) (string, error) {
	messages := []shared.Message{
		{Role: shared.RoleSystem, Content: contentPrompt(topic, sections)},
		{Role: shared.RoleUser, Content: "Write a report based upon these memos."},
	}
	return agents.CompleteText(ctx, w.llm, w.opts, messages)
}

func (w *Writer) generateIntroOrConclusion(ctx context.Context, topic, sections, instruction string) (string, error) {
	messages := []shared.Message{
		{Role: shared.RoleSystem, Content: introConclusionPrompt(topic, sections)},
		{Role: shared.RoleUser, Content: instruction},
	}
	return agents.CompleteText(ctx, w.llm, w.opts, messages)
}

// Compile assembles the final report. The body's "## Insights" header
// is dropped, and a trailing "## Sources" block is moved after the
// conclusion.
func Compile(introduction, content, conclusion string) string {
	if strings.HasPrefix(content, "## Insights") {
		content = strings.TrimSpace(strings.TrimPrefix(content, "## Insights"))
	}

	var sources string
	hasSources := false
	if idx := strings.Index(content, "\n## Sources\n"); idx >= 0 {
		sources = content[idx+len("\n## Sources\n"):]
		content = content[:idx]
		hasSources = true
	}

	final := introduction + "\n\n---\n\n" + content + "\n\n---\n\n" + conclusion
	if hasSources {
		final += "\n\n## Sources\n" + sources
	}
	return final
}
