package auditRepo

import (
	"context"

	"tidymatch/models"
)

// Repository persists the lifecycle event audit trail.
type Repository interface {
	// Insert appends one event record.
	Insert(ctx context.Context, evt *models.MatchingEvent) error
	// ListByRequest returns the recorded events for a request, oldest first.
	ListByRequest(ctx context.Context, requestID string) ([]models.MatchingEvent, error)
}
