package matching

import (
	"context"
	"errors"

	matchingRepo "tidymatch/database/repository/matching"
	reservationRepo "tidymatch/database/repository/reservation"

	"go.uber.org/zap"
)

// RetryScheduler queues the next AUTO attempt for later execution, so a
// failing reservation cannot hot-loop the orchestrator.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, reservationID string, attempt int) error
}

// RetryController reacts to terminal FAILED requests. It never mutates a
// matching request beyond retiring it; it only observes failures and opens
// the next attempt or escalates to an operator.
type RetryController interface {
	OnRequestFailed(ctx context.Context, reservationID, previousRequestID string) error
}

// DefaultRetryController is the production implementation.
type DefaultRetryController struct {
	MatchingRepo    matchingRepo.Repository
	ReservationRepo reservationRepo.Repository
	Scheduler       RetryScheduler
	// MaxAutoAttempts is the ceiling on automatic attempts; at or above it
	// the reservation is flagged for manual matching instead.
	MaxAutoAttempts int
}

// OnRequestFailed retires the failed request and either schedules the next
// AUTO attempt or flags the reservation for manual matching. The attempt
// counter is the count of retired requests.
func (c *DefaultRetryController) OnRequestFailed(ctx context.Context, reservationID, previousRequestID string) error {
	if err := c.MatchingRepo.Retire(ctx, previousRequestID); err != nil {
		if errors.Is(err, matchingRepo.ErrConflict) {
			return NewConflictError("request %s is still active, cannot retire", previousRequestID)
		}
		if errors.Is(err, matchingRepo.ErrNotFound) {
			return NewNotFoundError("matching request %s", previousRequestID)
		}
		return NewDependencyError(err, "retiring request %s", previousRequestID)
	}

	attempts, err := c.MatchingRepo.CountRetired(ctx, reservationID)
	if err != nil {
		return NewDependencyError(err, "counting attempts for reservation %s", reservationID)
	}

	if attempts >= c.MaxAutoAttempts {
		if err := c.ReservationRepo.SetNeedsManual(ctx, reservationID, true); err != nil {
			return NewDependencyError(err, "flagging reservation %s for manual matching", reservationID)
		}
		zap.L().Warn("matching attempts exhausted, awaiting operator",
			zap.String("reservationId", reservationID),
			zap.Int("attempts", attempts))
		return nil
	}

	if err := c.Scheduler.ScheduleRetry(ctx, reservationID, attempts+1); err != nil {
		return NewDependencyError(err, "scheduling retry for reservation %s", reservationID)
	}
	zap.L().Info("next matching attempt scheduled",
		zap.String("reservationId", reservationID),
		zap.Int("attempt", attempts+1))
	return nil
}
