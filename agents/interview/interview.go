// Package interview conducts analyst/expert interviews: question
// generation, web search grounded answers, and section writing.
package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"research-assistant/server/agents"
	"research-assistant/server/llm/providers/shared"
	"research-assistant/server/research"
	"research-assistant/server/search"
)

type speaker int

const (
	speakerExpert speaker = iota
	speakerAnalyst
)

type turn struct {
	speaker speaker
	content string
}

// Interviewer runs a single analyst interview against an expert role
// grounded in web search results.
type Interviewer struct {
	llm      shared.LLMProvider
	searcher search.Searcher
	opts     agents.Options
	log      zerolog.Logger
}

// NewInterviewer creates a new interviewer.
func NewInterviewer(llm shared.LLMProvider, searcher search.Searcher, opts agents.Options, log zerolog.Logger) *Interviewer {
	return &Interviewer{
		llm:      llm,
		searcher: searcher,
		opts:     opts,
		log:      log.With().Str("agent", "interviewer").Logger(),
	}
}

// Conduct runs the interview loop for up to maxTurns analyst questions
// and returns the written report section.
func (iv *Interviewer) Conduct(ctx context.Context, a research.Analyst, topic string, maxTurns int) (string, error) {
	if maxTurns <= 0 {
		maxTurns = research.DefaultMaxTurns
	}

	log := iv.log.With().Str("analyst", a.Name).Logger()
	log.Info().Str("topic", topic).Msg("starting interview")

	transcript := []turn{{
		speaker: speakerExpert,
		content: fmt.Sprintf("So you said you were writing an article on %s?", topic),
	}}
	var contextDocs []string

	for i := 0; i < maxTurns; i++ {
		question, err := iv.generateQuestion(ctx, a, transcript)
		if err != nil {
			return "", fmt.Errorf("interview with %s: question: %w", a.Name, err)
		}
		transcript = append(transcript, turn{speaker: speakerAnalyst, content: question})

		if strings.Contains(question, terminationPhrase) {
			log.Info().Int("turn", i+1).Msg("interview completed early")
			break
		}

		query, err := iv.generateSearchQuery(ctx, transcript)
		if err != nil {
			return "", fmt.Errorf("interview with %s: search query: %w", a.Name, err)
		}

		results, err := iv.searcher.Search(ctx, query)
		if err != nil {
			// Searches are best-effort; the interview continues on
			// whatever context already accumulated.
			log.Warn().Err(err).Str("query", query).Msg("search failed")
			results = nil
		}

		docs := search.FormatResults(results)
		if docs == "" {
			log.Warn().Str("query", query).Msg("no search results")
			continue
		}
		contextDocs = append(contextDocs, docs)

		answer, err := iv.generateAnswer(ctx, a, transcript, docs)
		if err != nil {
			return "", fmt.Errorf("interview with %s: answer: %w", a.Name, err)
		}
		transcript = append(transcript, turn{speaker: speakerExpert, content: answer})
	}

	section, err := iv.writeSection(ctx, a, contextDocs)
	if err != nil {
		return "", fmt.Errorf("interview with %s: section: %w", a.Name, err)
	}

	log.Info().Msg("interview completed")
	return section, nil
}

// generateQuestion asks the analyst persona for its next question.
func (iv *Interviewer) generateQuestion(ctx context.Context, a research.Analyst, transcript []turn) (string, error) {
	messages := []shared.Message{{Role: shared.RoleSystem, Content: questionPrompt(a.Persona())}}
	messages = append(messages, renderTranscript(transcript, speakerAnalyst)...)
	return agents.CompleteText(ctx, iv.llm, iv.opts, messages)
}

// generateSearchQuery distills the conversation into a web query.
func (iv *Interviewer) generateSearchQuery(ctx context.Context, transcript []turn) (string, error) {
	messages := []shared.Message{{Role: shared.RoleSystem, Content: searchInstructions}}
	messages = append(messages, renderTranscript(transcript, speakerExpert)...)

	var query research.SearchQuery
	if err := agents.CompleteJSON(ctx, iv.llm, iv.opts, messages, &query); err != nil {
		return "", err
	}
	if query.SearchQuery == "" {
		return "", fmt.Errorf("model returned empty search query")
	}
	return query.SearchQuery, nil
}

// generateAnswer answers the latest question as the expert, grounded
// in the retrieved documents.
func (iv *Interviewer) generateAnswer(ctx context.Context, a research.Analyst, transcript []turn, docs string) (string, error) {
	messages := []shared.Message{{Role: shared.RoleSystem, Content: answerPrompt(a.Persona(), docs)}}
	messages = append(messages, renderTranscript(transcript, speakerExpert)...)
	return agents.CompleteText(ctx, iv.llm, iv.opts, messages)
}

// writeSection turns the accumulated interview context into a report
// section.
func (iv *Interviewer) writeSection(ctx context.Context, a research.Analyst, contextDocs []string) (string, error) {
	messages := []shared.Message{
		{Role: shared.RoleSystem, Content: sectionWriterPrompt(a.Description)},
		{Role: shared.RoleUser, Content: "Use this source to write your section: " + strings.Join(contextDocs, "\n\n")},
	}
	return agents.CompleteText(ctx, iv.llm, iv.opts, messages)
}

// renderTranscript converts the transcript into chat messages from the
// point of view of the given speaker: their own turns become assistant
// messages, the counterpart's turns become user messages.
func renderTranscript(transcript []turn, viewpoint speaker) []shared.Message {
	messages := make([]shared.Message, 0, len(transcript))
	for _, t := range transcript {
		role := shared.RoleUser
		if t.speaker == viewpoint {
			role = shared.RoleAssistant
		}
		messages = append(messages, shared.Message{Role: role, Content: t.content})
	}
	return messages
}
