package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"tidymatch/models"

	"github.com/hibiken/asynq"
)

// TypeMatchingEvent is the asynq task type for lifecycle event fan-out.
const TypeMatchingEvent = "matching:event"

// AsynqPublisher queues events for the background worker to deliver and
// record.
type AsynqPublisher struct {
	Client *asynq.Client
}

func (p *AsynqPublisher) Publish(ctx context.Context, evt models.MatchingEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal matching event: %w", err)
	}
	task := asynq.NewTask(TypeMatchingEvent, payload, asynq.MaxRetry(5))
	if _, err := p.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue matching event: %w", err)
	}
	return nil
}
