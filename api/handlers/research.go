// Package handlers implements the HTTP endpoints of the research API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"research-assistant/server/api"
	"research-assistant/server/events"
	"research-assistant/server/research"
	"research-assistant/server/store"
)

// Runner executes a research run. *workflow.Workflow implements it.
type Runner interface {
	Run(ctx context.Context, cfg research.Config, cb research.Callbacks) (*research.Results, error)
}

// runTimeout bounds a detached background run.
const runTimeout = 30 * time.Minute

// ResearchHandler serves run submission, status, report and event
// streaming.
type ResearchHandler struct {
	runner Runner
	store  store.RunStore
	broker *events.Broker
	log    zerolog.Logger
}

// NewResearchHandler creates a research handler.
func NewResearchHandler(runner Runner, runStore store.RunStore, broker *events.Broker, log zerolog.Logger) *ResearchHandler {
	return &ResearchHandler{
		runner: runner,
		store:  runStore,
		broker: broker,
		log:    log.With().Str("handler", "research").Logger(),
	}
}

// StartResearch accepts a run request, persists it and executes the
// workflow in the background.
func (h *ResearchHandler) StartResearch(w http.ResponseWriter, r *http.Request) {
	var req api.ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON request", err.Error())
		return
	}

	cfg := req.Config()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid research config", err.Error())
		return
	}

	run, err := h.store.Create(r.Context(), cfg)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to create run", err.Error())
		return
	}

	h.log.Info().Str("run_id", run.ID).Str("topic", cfg.Topic).Msg("research run accepted")
	go h.execute(run.ID, cfg)

	writeJSON(w, http.StatusAccepted, api.ResearchAccepted{ID: run.ID, Status: string(run.Status)})
}

// execute runs the workflow detached from the request, mirroring every
// callback into the store and the event broker.
func (h *ResearchHandler) execute(runID string, cfg research.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cb := research.Callbacks{
		OnProgress: func(p int, msg string) {
			if err := h.store.UpdateProgress(ctx, runID, p, msg); err != nil {
				h.log.Warn().Err(err).Str("run_id", runID).Msg("progress update failed")
			}
			h.broker.Publish(runID, events.Event{Type: events.TypeProgress, Progress: p, Message: msg})
		},
		OnAnalystsCreated: func(analysts []research.Analyst) {
			if err := h.store.SetAnalysts(ctx, runID, analysts); err != nil {
				h.log.Warn().Err(err).Str("run_id", runID).Msg("analyst update failed")
			}
			h.broker.Publish(runID, events.Event{Type: events.TypeAnalysts, Analysts: analysts})
		},
		OnSectionComplete: func(section string) {
			if err := h.store.AddSection(ctx, runID, section); err != nil {
				h.log.Warn().Err(err).Str("run_id", runID).Msg("section update failed")
			}
			h.broker.Publish(runID, events.Event{Type: events.TypeSection, Section: section})
		},
		OnError: func(msg string) {
			h.broker.Publish(runID, events.Event{Type: events.TypeError, Message: msg})
		},
	}

	results, err := h.runner.Run(ctx, cfg, cb)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("research run failed")
		if serr := h.store.Fail(ctx, runID, err.Error()); serr != nil {
			h.log.Warn().Err(serr).Str("run_id", runID).Msg("failure update failed")
		}
		h.broker.Publish(runID, events.Event{Type: events.TypeError, Message: err.Error()})
		h.broker.Finish(runID)
		return
	}

	if err := h.store.Complete(ctx, runID, results); err != nil {
		h.log.Warn().Err(err).Str("run_id", runID).Msg("completion update failed")
	}
	h.broker.Publish(runID, events.Event{Type: events.TypeDone, Progress: 100, Message: "Research completed successfully!"})
	h.broker.Finish(runID)
	h.log.Info().Str("run_id", runID).Msg("research run completed")
}

// GetRun returns the state of a run.
func (h *ResearchHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.NewRunResponse(run))
}

// GetReport returns the final report of a completed run.
func (h *ResearchHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if run.Status != store.StatusCompleted {
		writeJSONError(w, http.StatusConflict, "Report not ready", "run status is "+string(run.Status))
		return
	}
	writeJSON(w, http.StatusOK, api.ReportResponse{
		ID:          run.ID,
		Topic:       run.Config.Topic,
		FinalReport: run.FinalReport,
	})
}

// ListRuns returns all runs, newest first.
func (h *ResearchHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list runs", err.Error())
		return
	}
	out := make([]api.RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, api.NewRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// StreamEvents serves run updates over server-sent events until the
// run finishes or the client disconnects.
func (h *ResearchHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the snapshot read: a run finishing in between
	// closes the channel, so the stream still terminates.
	id := r.PathValue("id")
	ch, cancel := h.broker.Subscribe(id)
	defer cancel()

	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported", "response writer does not support flushing")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial snapshot so late subscribers see the current state.
	writeSSE(w, events.Event{Type: events.TypeProgress, Progress: run.Progress, Message: run.Message})
	flusher.Flush()

	if run.Status == store.StatusCompleted || run.Status == store.StatusFailed {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (h *ResearchHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	id := r.PathValue("id")
	run, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "Run not found", id)
		return nil, false
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load run", err.Error())
		return nil, false
	}
	return run, true
}

func writeSSE(w http.ResponseWriter, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: " + ev.Type + "\ndata: " + string(data) + "\n\n"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: message,
		Code:  http.StatusText(status),
		Details: map[string]any{
			"details": details,
		},
	})
}
