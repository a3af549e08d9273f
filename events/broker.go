// Package events fans progress updates out to API subscribers while a
// research run executes.
package events

import (
	"sync"

	"research-assistant/server/research"
)

// Event types published during a run.
const (
	TypeProgress = "progress"
	TypeAnalysts = "analysts"
	TypeSection  = "section"
	TypeError    = "error"
	TypeDone     = "done"
)

// Event is one update for a run.
type Event struct {
	Type     string             `json:"type"`
	Progress int                `json:"progress,omitempty"`
	Message  string             `json:"message,omitempty"`
	Analysts []research.Analyst `json:"analysts,omitempty"`
	Section  string             `json:"section,omitempty"`
}

const subscriberBuffer = 64

// Broker routes events to subscribers per run id. A slow subscriber
// drops events instead of blocking the run.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events on a run. The returned cancel func
// must be called when the subscriber is done; the channel is closed
// when the run finishes or the subscription is cancelled.
func (b *Broker) Subscribe(runID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = make(map[chan Event]struct{})
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[runID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, runID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers of the run.
func (b *Broker) Publish(runID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[runID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Finish closes all subscriptions for a run after the final event.
func (b *Broker) Finish(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[runID] {
		close(ch)
	}
	delete(b.subs, runID)
}
