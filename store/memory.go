package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"research-assistant/server/research"
)

// MemoryStore is an in-memory RunStore. It is the default backend and
// the one used in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func (s *MemoryStore) Create(ctx context.Context, cfg research.Config) (*Run, error) {
	id, err := newRunID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run := &Run{
		ID:        id,
		Status:    StatusPending,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.runs[id] = run
	s.mu.Unlock()

	return copyRun(run), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRun(run), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, copyRun(run))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	return s.update(id, func(run *Run) {
		run.Status = StatusRunning
		run.Progress = progress
		run.Message = message
	})
}

func (s *MemoryStore) SetAnalysts(ctx context.Context, id string, analysts []research.Analyst) error {
	return s.update(id, func(run *Run) {
		run.Analysts = append([]research.Analyst(nil), analysts...)
	})
}

func (s *MemoryStore) AddSection(ctx context.Context, id, section string) error {
	return s.update(id, func(run *Run) {
		run.Sections = append(run.Sections, section)
	})
}

func (s *MemoryStore) Complete(ctx context.Context, id string, results *research.Results) error {
	return s.update(id, func(run *Run) {
		run.Status = StatusCompleted
		run.Progress = 100
		run.Message = "Research completed successfully!"
		run.Analysts = append([]research.Analyst(nil), results.Analysts...)
		run.Sections = append([]string(nil), results.Sections...)
		run.FinalReport = results.FinalReport
	})
}

func (s *MemoryStore) Fail(ctx context.Context, id, message string) error {
	return s.update(id, func(run *Run) {
		run.Status = StatusFailed
		run.Error = message
	})
}

func (s *MemoryStore) update(id string, fn func(*Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrNotFound
	}
	fn(run)
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func copyRun(run *Run) *Run {
	out := *run
	out.Analysts = append([]research.Analyst(nil), run.Analysts...)
	out.Sections = append([]string(nil), run.Sections...)
	return &out
}
