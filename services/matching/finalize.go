package matching

import (
	"context"
	"errors"
	"time"

	matchingRepo "tidymatch/database/repository/matching"
	"tidymatch/models"

	"go.uber.org/zap"
)

// ResolveConsumerDecision applies the consumer's confirm or reject to one
// accepted candidate.
//
// Confirm commits the whole transition atomically: the target entry becomes
// final, undecided siblings are closed as superseded, the request becomes
// MATCHED, and the reservation becomes CONFIRMED. Exactly one candidate per
// request can ever win; a concurrent confirm on a sibling loses with a
// conflict. Reject closes just the target entry and, when it was the last
// open offer, fails the request and hands it to the retry controller.
func (s *DefaultMatchingService) ResolveConsumerDecision(ctx context.Context, requestID, managerID string, confirm bool, reason string) (*models.MatchingRequest, error) {
	if managerID == "" {
		return nil, NewValidationError("manager id is required")
	}
	if !confirm && reason == "" {
		return nil, NewValidationError("a rejection requires a reason")
	}

	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReservationActive(ctx, req.ReservationID); err != nil {
		return nil, err
	}

	entry := req.Candidate(managerID)
	if entry == nil {
		return nil, NewNotFoundError("candidate %s on request %s", managerID, requestID)
	}
	if !entry.AwaitingDecision() {
		return nil, NewConflictError("candidate %s on request %s is not awaiting a decision", managerID, requestID)
	}

	if confirm {
		return s.confirmCandidate(ctx, req, managerID)
	}
	return s.rejectCandidate(ctx, req, managerID, reason)
}

func (s *DefaultMatchingService) confirmCandidate(ctx context.Context, req *models.MatchingRequest, managerID string) (*models.MatchingRequest, error) {
	now := time.Now()
	updated, err := s.MatchingRepo.FinalizeCandidate(ctx, req.ID, managerID, req.ReservationID, now)
	if err != nil {
		if errors.Is(err, matchingRepo.ErrConflict) {
			return nil, NewConflictError("request %s was finalized by a concurrent decision", req.ID)
		}
		return nil, NewDependencyError(err, "finalizing request %s", req.ID)
	}

	s.publish(ctx, models.MatchingEvent{
		Type:          models.EventRequestMatched,
		RequestID:     req.ID,
		ReservationID: req.ReservationID,
		ManagerID:     managerID,
		Attempt:       req.Attempt,
		At:            now,
	})

	zap.L().Info("matching request finalized",
		zap.String("requestId", req.ID),
		zap.String("reservationId", req.ReservationID),
		zap.String("managerId", managerID))
	return updated, nil
}

func (s *DefaultMatchingService) rejectCandidate(ctx context.Context, req *models.MatchingRequest, managerID, reason string) (*models.MatchingRequest, error) {
	now := time.Now()
	updated, err := s.MatchingRepo.RejectCandidate(ctx, req.ID, managerID, reason, now)
	if err != nil {
		switch {
		case errors.Is(err, matchingRepo.ErrNotFound):
			return nil, NewNotFoundError("candidate %s on request %s", managerID, req.ID)
		case errors.Is(err, matchingRepo.ErrConflict):
			return nil, NewConflictError("candidate %s on request %s is not awaiting a decision", managerID, req.ID)
		default:
			return nil, NewDependencyError(err, "rejecting candidate on request %s", req.ID)
		}
	}

	zap.L().Info("consumer rejected candidate",
		zap.String("requestId", req.ID),
		zap.String("managerId", managerID),
		zap.String("reason", reason))

	s.failIfExhausted(ctx, updated)
	return s.GetRequest(ctx, req.ID)
}
