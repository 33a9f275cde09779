package store

import (
	"context"

	"github.com/phrazzld/totem-api/internal/domain"
)

// ActivityStore appends entries to the audit trail.
type ActivityStore interface {
	// Record inserts an activity entry and sets its ID.
	Record(ctx context.Context, entry *domain.ActivityEntry) error
}
