package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"research-assistant/server/api"
	"research-assistant/server/research"
)

// AnalystGenerator produces analyst personas. *analyst.Generator
// implements it.
type AnalystGenerator interface {
	Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]research.Analyst, error)
}

// AnalystsHandler serves synchronous analyst generation, used to
// preview and refine personas before starting a full run.
type AnalystsHandler struct {
	generator AnalystGenerator
	log       zerolog.Logger
}

// NewAnalystsHandler creates an analysts handler.
func NewAnalystsHandler(generator AnalystGenerator, log zerolog.Logger) *AnalystsHandler {
	return &AnalystsHandler{
		generator: generator,
		log:       log.With().Str("handler", "analysts").Logger(),
	}
}

// GenerateAnalysts generates personas for a topic without running
// interviews.
func (h *AnalystsHandler) GenerateAnalysts(w http.ResponseWriter, r *http.Request) {
	var req api.AnalystsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON request", err.Error())
		return
	}
	if req.Topic == "" {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", "topic is required")
		return
	}

	maxAnalysts := req.MaxAnalysts
	if maxAnalysts <= 0 {
		maxAnalysts = research.DefaultMaxAnalysts
	}
	if maxAnalysts > research.MaxAnalystsLimit {
		maxAnalysts = research.MaxAnalystsLimit
	}

	analysts, err := h.generator.Generate(r.Context(), req.Topic, maxAnalysts, req.HumanFeedback)
	if err != nil {
		h.log.Error().Err(err).Str("topic", req.Topic).Msg("analyst generation failed")
		writeJSONError(w, http.StatusInternalServerError, "Analyst generation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, api.AnalystsResponse{Analysts: analysts})
}
