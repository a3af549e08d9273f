// Package analyst generates the research analyst personas that drive
// interviews.
package analyst

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"research-assistant/server/agents"
	"research-assistant/server/llm/providers/shared"
	"research-assistant/server/research"
)

// Generator creates analyst personas for a topic.
type Generator struct {
	llm  shared.LLMProvider
	opts agents.Options
	log  zerolog.Logger
}

// NewGenerator creates a new analyst generator.
func NewGenerator(llm shared.LLMProvider, opts agents.Options, log zerolog.Logger) *Generator {
	return &Generator{
		llm:  llm,
		opts: opts,
		log:  log.With().Str("agent", "analyst-generator").Logger(),
	}
}

// Generate creates up to maxAnalysts personas for the topic. Optional
// human feedback steers persona selection.
func (g *Generator) Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]research.Analyst, error) {
	if maxAnalysts <= 0 {
		maxAnalysts = research.DefaultMaxAnalysts
	}

	g.log.Info().Str("topic", topic).Int("max_analysts", maxAnalysts).Msg("generating analysts")

	messages := []shared.Message{
		{Role: shared.RoleSystem, Content: creationPrompt(topic, maxAnalysts, feedback)},
		{Role: shared.RoleUser, Content: "Generate the set of analysts."},
	}

	var perspectives research.Perspectives
	if err := agents.CompleteJSON(ctx, g.llm, g.opts, messages, &perspectives); err != nil {
		return nil, fmt.Errorf("generate analysts: %w", err)
	}

	if len(perspectives.Analysts) == 0 {
		return nil, fmt.Errorf("generate analysts: model returned no analysts")
	}
	if len(perspectives.Analysts) > maxAnalysts {
		perspectives.Analysts = perspectives.Analysts[:maxAnalysts]
	}

	g.log.Info().Int("count", len(perspectives.Analysts)).Msg("analysts generated")
	return perspectives.Analysts, nil
}
