package events

import (
	"context"
	"fmt"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/store"
)

// ActivityLogHandler persists change events to the activity log.
type ActivityLogHandler struct {
	store store.ActivityStore
}

// NewActivityLogHandler creates a handler writing to the given store.
func NewActivityLogHandler(s store.ActivityStore) *ActivityLogHandler {
	return &ActivityLogHandler{store: s}
}

// HandleEvent implements EventHandler.
func (h *ActivityLogHandler) HandleEvent(ctx context.Context, event *ChangeEvent) error {
	entry := &domain.ActivityEntry{
		Action:    event.Action,
		TableName: event.Table,
		RecordID:  event.RecordID,
		Details:   event.Payload,
		CreatedAt: event.OccurredAt,
	}
	if event.Actor.Authenticated() {
		uid := event.Actor.UserID
		entry.UserID = &uid
	}

	if err := h.store.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record activity for event %s: %w", event.ID, err)
	}
	return nil
}
