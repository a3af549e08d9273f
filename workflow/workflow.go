// Package workflow orchestrates a research run as a flyt flow:
// analyst generation, interviews, report writing.
package workflow

import (
	"context"
	"fmt"

	"github.com/mark3labs/flyt"
	"github.com/rs/zerolog"

	"research-assistant/server/agents"
	"research-assistant/server/agents/analyst"
	"research-assistant/server/agents/interview"
	"research-assistant/server/agents/report"
	"research-assistant/server/llm/providers/shared"
	"research-assistant/server/research"
	"research-assistant/server/search"
)

// Shared store keys used between nodes.
const (
	keyConfig   = "config"
	keyAnalysts = "analysts"
	keySections = "sections"
	keyResults  = "results"
)

// Workflow wires the three agents into a runnable flow.
type Workflow struct {
	generator   *analyst.Generator
	interviewer *interview.Interviewer
	writer      *report.Writer
	log         zerolog.Logger
}

// New creates a workflow over the given provider and searcher.
func New(llm shared.LLMProvider, searcher search.Searcher, opts agents.Options, log zerolog.Logger) *Workflow {
	return &Workflow{
		generator:   analyst.NewGenerator(llm, opts, log),
		interviewer: interview.NewInterviewer(llm, searcher, opts, log),
		writer:      report.NewWriter(llm, opts, log),
		log:         log.With().Str("component", "workflow").Logger(),
	}
}

// Run executes the research flow and returns the results. Callbacks
// fire as the run progresses; a failing interview contributes an error
// section instead of failing the run.
func (w *Workflow) Run(ctx context.Context, cfg research.Config, cb research.Callbacks) (*research.Results, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := flyt.NewSharedStore()
	store.Set(keyConfig, cfg)

	// Generation and report writing retry once on transient provider
	// failures; interviews handle their own errors per analyst.
	genNode := &generateAnalystsNode{BaseNode: flyt.NewBaseNode(flyt.WithMaxRetries(2)), w: w, cb: cb}
	interviewsNode := &conductInterviewsNode{BaseNode: flyt.NewBaseNode(), w: w, cb: cb}
	reportNode := &writeReportNode{BaseNode: flyt.NewBaseNode(flyt.WithMaxRetries(2)), w: w, cb: cb}

	flow := flyt.NewFlow(genNode)
	flow.Connect(genNode, flyt.DefaultAction, interviewsNode)
	flow.Connect(interviewsNode, flyt.DefaultAction, reportNode)

	if err := flow.Run(ctx, store); err != nil {
		msg := fmt.Sprintf("workflow failed: %v", err)
		w.log.Error().Err(err).Str("topic", cfg.Topic).Msg("run failed")
		cb.Error(msg)
		return nil, fmt.Errorf("run research: %w", err)
	}

	v, ok := store.Get(keyResults)
	if !ok {
		return nil, fmt.Errorf("run research: flow finished without results")
	}

	results := v.(*research.Results)
	cb.Progress(100, "Research completed successfully!")
	return results, nil
}
