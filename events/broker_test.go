package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/server/research"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	b.Publish("run-1", Event{Type: TypeProgress, Progress: 10, Message: "starting"})
	b.Publish("run-2", Event{Type: TypeProgress, Progress: 50, Message: "other run"})

	select {
	case ev := <-ch:
		assert.Equal(t, TypeProgress, ev.Type)
		assert.Equal(t, 10, ev.Progress)
		assert.Equal(t, "starting", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for another run: %+v", ev)
	default:
	}
}

func TestBrokerFinishClosesSubscribers(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	b.Publish("run-1", Event{Type: TypeDone, Progress: 100})
	b.Finish("run-1")

	ev, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, TypeDone, ev.Type)

	_, ok = <-ch
	assert.False(t, ok, "channel must be closed after Finish")

	// Cancelling after Finish is a no-op.
	cancel()
}

func TestBrokerSlowSubscriberDropsEvents(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish("run-1", Event{Type: TypeProgress, Progress: i})
	}

	// The buffer holds the first events; the rest are dropped without
	// blocking Publish.
	assert.Len(t, ch, subscriberBuffer)
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	b := NewBroker()

	ch1, cancel1 := b.Subscribe("run-1")
	ch2, cancel2 := b.Subscribe("run-1")
	defer cancel1()
	defer cancel2()

	analysts := []research.Analyst{{Name: "Dr. Ada Reyes"}}
	b.Publish("run-1", Event{Type: TypeAnalysts, Analysts: analysts})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, TypeAnalysts, ev.Type)
			assert.Equal(t, analysts, ev.Analysts)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe("run-1")
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed after cancel")

	// Publishing after cancel must not panic.
	b.Publish("run-1", Event{Type: TypeProgress})
}
