package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeMatchingRetry is the asynq task type for scheduled re-match attempts.
const TypeMatchingRetry = "matching:retry"

// RetryPayload is the matching:retry task body.
type RetryPayload struct {
	ReservationID string `json:"reservationId"`
	Attempt       int    `json:"attempt"`
}

// AsynqRetryScheduler enqueues the next AUTO attempt on the asynq queue
// with a growing delay per attempt.
type AsynqRetryScheduler struct {
	Client    *asynq.Client
	BaseDelay time.Duration
}

func (s *AsynqRetryScheduler) ScheduleRetry(ctx context.Context, reservationID string, attempt int) error {
	payload, err := json.Marshal(RetryPayload{ReservationID: reservationID, Attempt: attempt})
	if err != nil {
		return fmt.Errorf("failed to marshal retry payload: %w", err)
	}

	delay := s.BaseDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	delay *= time.Duration(attempt)

	task := asynq.NewTask(TypeMatchingRetry, payload)
	if _, err := s.Client.EnqueueContext(ctx, task, asynq.ProcessIn(delay)); err != nil {
		return fmt.Errorf("failed to enqueue retry for reservation %s: %w", reservationID, err)
	}
	return nil
}
