// Package api defines the request and response types of the HTTP API.
package api

import (
	"time"

	"research-assistant/server/research"
	"research-assistant/server/store"
)

// ResearchRequest starts a research run.
type ResearchRequest struct {
	Topic         string `json:"topic"`
	MaxAnalysts   int    `json:"max_analysts,omitempty"`
	MaxTurns      int    `json:"max_turns,omitempty"`
	HumanFeedback string `json:"human_feedback,omitempty"`
	Parallelism   int    `json:"parallelism,omitempty"`
}

// Config converts the request into a run config.
func (r ResearchRequest) Config() research.Config {
	return research.Config{
		Topic:         r.Topic,
		MaxAnalysts:   r.MaxAnalysts,
		MaxTurns:      r.MaxTurns,
		HumanFeedback: r.HumanFeedback,
		Parallelism:   r.Parallelism,
	}
}

// ResearchAccepted is returned when a run has been queued.
type ResearchAccepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RunResponse is the public view of a run.
type RunResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Progress  int                `json:"progress"`
	Message   string             `json:"message,omitempty"`
	Topic     string             `json:"topic"`
	Analysts  []research.Analyst `json:"analysts,omitempty"`
	Sections  []string           `json:"sections,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewRunResponse maps a stored run to its public view.
func NewRunResponse(run *store.Run) RunResponse {
	return RunResponse{
		ID:        run.ID,
		Status:    string(run.Status),
		Progress:  run.Progress,
		Message:   run.Message,
		Topic:     run.Config.Topic,
		Analysts:  run.Analysts,
		Sections:  run.Sections,
		Error:     run.Error,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
}

// ReportResponse carries the final report of a completed run.
type ReportResponse struct {
	ID          string `json:"id"`
	Topic       string `json:"topic"`
	FinalReport string `json:"final_report"`
}

// AnalystsRequest generates analyst personas without running interviews.
type AnalystsRequest struct {
	Topic         string `json:"topic"`
	MaxAnalysts   int    `json:"max_analysts,omitempty"`
	HumanFeedback string `json:"human_feedback,omitempty"`
}

// AnalystsResponse lists generated personas.
type AnalystsResponse struct {
	Analysts []research.Analyst `json:"analysts"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}
