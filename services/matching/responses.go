package matching

import (
	"context"
	"errors"
	"time"

	matchingRepo "tidymatch/database/repository/matching"
	reservationRepo "tidymatch/database/repository/reservation"
	"tidymatch/models"

	"go.uber.org/zap"
)

// RecordCandidateResponse stores a manager's accept or decline.
//
// The isAccepted field is write-once: the first response wins and every
// later one fails with a conflict, which makes responses idempotent and
// order-independent across managers. A decline that closes the last open
// candidate moves the request to FAILED and hands it to the retry
// controller.
func (s *DefaultMatchingService) RecordCandidateResponse(ctx context.Context, requestID, managerID string, accept bool, reason string) (*models.CandidateEntry, error) {
	if managerID == "" {
		return nil, NewValidationError("manager id is required")
	}
	if !accept && reason == "" {
		return nil, NewValidationError("a decline requires a reason")
	}

	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReservationActive(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, NewConflictError("request %s is already %s", requestID, req.Status)
	}

	now := time.Now()
	updated, err := s.MatchingRepo.SetCandidateResponse(ctx, requestID, managerID, accept, reason, now)
	if err != nil {
		switch {
		case errors.Is(err, matchingRepo.ErrNotFound):
			return nil, NewNotFoundError("candidate %s on request %s", managerID, requestID)
		case errors.Is(err, matchingRepo.ErrConflict):
			return nil, NewConflictError("candidate %s already responded on request %s", managerID, requestID)
		default:
			return nil, NewDependencyError(err, "recording response on request %s", requestID)
		}
	}

	s.publish(ctx, models.MatchingEvent{
		Type:          models.EventCandidateResponded,
		RequestID:     requestID,
		ReservationID: updated.ReservationID,
		ManagerID:     managerID,
		Attempt:       updated.Attempt,
		Accepted:      &accept,
		Reason:        reason,
		At:            now,
	})

	if !accept {
		s.failIfExhausted(ctx, updated)
	}

	zap.L().Info("candidate responded",
		zap.String("requestId", requestID),
		zap.String("managerId", managerID),
		zap.Bool("accepted", accept))

	entry := updated.Candidate(managerID)
	if entry == nil {
		return nil, NewDependencyError(nil, "candidate %s missing after update on request %s", managerID, requestID)
	}
	return entry, nil
}

// checkReservationActive rejects responses for cancelled reservations.
func (s *DefaultMatchingService) checkReservationActive(ctx context.Context, reservationID string) error {
	res, err := s.ReservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return NewNotFoundError("reservation %s", reservationID)
		}
		return NewDependencyError(err, "fetching reservation %s", reservationID)
	}
	if res.Status == models.ReservationCancelled {
		return NewConflictError("reservation %s no longer active", reservationID)
	}
	return nil
}

// failIfExhausted applies the derived-status rule after a closing write and
// runs the failure path when the transition fires. The repository re-checks
// exhaustion under its own guard, so a racing late write cannot be lost.
func (s *DefaultMatchingService) failIfExhausted(ctx context.Context, req *models.MatchingRequest) {
	status, reason := models.DeriveStatus(req.Candidates)
	if status != models.RequestFailed {
		return
	}
	fired, err := s.MatchingRepo.MarkFailedIfExhausted(ctx, req.ID, reason)
	if err != nil {
		zap.L().Error("failed to mark request failed",
			zap.String("requestId", req.ID), zap.Error(err))
		return
	}
	if !fired {
		return
	}
	req.Status = models.RequestFailed
	req.StatusReason = reason

	s.publish(ctx, models.MatchingEvent{
		Type:          models.EventRequestFailed,
		RequestID:     req.ID,
		ReservationID: req.ReservationID,
		Attempt:       req.Attempt,
		Reason:        reason,
		At:            time.Now(),
	})
	s.notifyFailed(ctx, req)
}
