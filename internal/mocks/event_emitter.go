package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/totem-api/internal/events"
)

// RecordingEmitter implements events.EventEmitter and keeps every event.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []*events.ChangeEvent

	// Err is returned from EmitEvent after the event is recorded.
	Err error
}

// EmitEvent implements events.EventEmitter.
func (r *RecordingEmitter) EmitEvent(_ context.Context, event *events.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns the recorded events in emission order.
func (r *RecordingEmitter) Events() []*events.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*events.ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event, or nil.
func (r *RecordingEmitter) Last() *events.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}
