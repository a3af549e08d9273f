// Package store persists research runs. A run is created when a
// research request is accepted and updated as the workflow progresses.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"research-assistant/server/research"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the persisted state of one research run.
type Run struct {
	ID          string             `json:"id"`
	Status      Status             `json:"status"`
	Progress    int                `json:"progress"`
	Message     string             `json:"message,omitempty"`
	Config      research.Config    `json:"config"`
	Analysts    []research.Analyst `json:"analysts,omitempty"`
	Sections    []string           `json:"sections,omitempty"`
	FinalReport string             `json:"final_report,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RunStore persists runs through their lifecycle. Implementations must
// be safe for concurrent use.
type RunStore interface {
	// Create registers a new pending run for the config and returns it.
	Create(ctx context.Context, cfg research.Config) (*Run, error)
	// Get returns the run with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns all runs, newest first.
	List(ctx context.Context) ([]*Run, error)
	// UpdateProgress records progress and marks the run running.
	UpdateProgress(ctx context.Context, id string, progress int, message string) error
	// SetAnalysts records the generated analysts.
	SetAnalysts(ctx context.Context, id string, analysts []research.Analyst) error
	// AddSection appends a completed interview section.
	AddSection(ctx context.Context, id, section string) error
	// Complete marks the run completed with its results.
	Complete(ctx context.Context, id string, results *research.Results) error
	// Fail marks the run failed with the given message.
	Fail(ctx context.Context, id, message string) error
}

// newRunID returns a random 32-character hex id.
func newRunID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
