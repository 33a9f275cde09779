package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/totem-api/internal/domain"
)

// ChangeEvent records a successful mutation of an entity table or the
// system configuration.
type ChangeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Action is one of the domain.Action* constants or a descriptor action name
	Action string `json:"action"`

	// Table is the physical table that changed
	Table string `json:"table"`

	// RecordID identifies the changed row: a numeric id or a configuration key
	RecordID string `json:"record_id"`

	// Actor is the caller that performed the change
	Actor domain.Principal `json:"-"`

	// Payload contains change details serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent creates a ChangeEvent, serializing payload to JSON.
// A nil payload leaves Payload empty.
func NewChangeEvent(
	action, table, recordID string,
	actor domain.Principal,
	payload any,
) (*ChangeEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &ChangeEvent{
		ID:         uuid.New(),
		Action:     action,
		Table:      table,
		RecordID:   recordID,
		Actor:      actor,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *ChangeEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *ChangeEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ChangeEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ChangeEvent) error
}
