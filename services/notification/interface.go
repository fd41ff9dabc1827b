package notification

import (
	"context"

	"tidymatch/models"
)

// Service delivers matching lifecycle events to downstream consumers.
// Publishing is fire-and-forget from the engine's perspective: delivery is
// at-least-once and consumers deduplicate by the event's DedupKey.
type Service interface {
	Publish(ctx context.Context, evt models.MatchingEvent) error
}
