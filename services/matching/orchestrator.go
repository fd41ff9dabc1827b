package matching

import (
	"context"
	"errors"
	"time"

	managerRepo "tidymatch/database/repository/manager"
	matchingRepo "tidymatch/database/repository/matching"
	reservationRepo "tidymatch/database/repository/reservation"
	"tidymatch/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequest opens a new matching attempt for the reservation.
//
// AUTO mode ranks the eligible managers and requests the top K; MANUAL mode
// requests exactly the operator-designated manager. A reservation can hold
// only one non-terminal request at a time.
func (s *DefaultMatchingService) CreateRequest(ctx context.Context, reservationID string, mode models.MatchingMode, opts CreateOptions) (*models.MatchingRequest, error) {
	if !mode.Valid() {
		return nil, NewValidationError("unknown matching mode %q", mode)
	}

	res, err := s.ReservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, NewNotFoundError("reservation %s", reservationID)
		}
		return nil, NewDependencyError(err, "fetching reservation %s", reservationID)
	}
	if res.Status != models.ReservationPending {
		return nil, NewConflictError("reservation %s is %s, not awaiting a match", reservationID, res.Status)
	}

	if active, err := s.MatchingRepo.GetActiveByReservation(ctx, reservationID); err == nil {
		return nil, NewConflictError("reservation %s already has active request %s", reservationID, active.ID)
	} else if !errors.Is(err, matchingRepo.ErrNotFound) {
		return nil, NewDependencyError(err, "checking active request for reservation %s", reservationID)
	}

	attempt, err := s.MatchingRepo.CountByReservation(ctx, reservationID)
	if err != nil {
		return nil, NewDependencyError(err, "counting requests for reservation %s", reservationID)
	}

	now := time.Now()
	req := &models.MatchingRequest{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Attempt:       attempt + 1,
		Mode:          mode,
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch mode {
	case models.ModeAuto:
		if err := s.populateAutoCandidates(ctx, res, req, now); err != nil {
			return nil, err
		}
	case models.ModeManual:
		if err := s.populateManualCandidate(ctx, res, req, opts); err != nil {
			return nil, err
		}
	}

	if len(req.Candidates) == 0 {
		// No partial request: persisted already terminal, nothing to respond to.
		req.Status = models.RequestFailed
		req.StatusReason = models.ReasonNoCandidates
	}

	if err := s.MatchingRepo.Create(ctx, req); err != nil {
		return nil, NewDependencyError(err, "persisting matching request for reservation %s", reservationID)
	}

	// A manual request is the operator taking over; clear the escalation flag.
	if mode == models.ModeManual && res.NeedsManual {
		if err := s.ReservationRepo.SetNeedsManual(ctx, reservationID, false); err != nil {
			zap.L().Warn("failed to clear manual-matching flag",
				zap.String("reservationId", reservationID), zap.Error(err))
		}
	}

	s.publish(ctx, models.MatchingEvent{
		Type:          models.EventRequestCreated,
		RequestID:     req.ID,
		ReservationID: reservationID,
		Attempt:       req.Attempt,
		At:            now,
	})

	if req.Status == models.RequestFailed {
		s.publish(ctx, models.MatchingEvent{
			Type:          models.EventRequestFailed,
			RequestID:     req.ID,
			ReservationID: reservationID,
			Attempt:       req.Attempt,
			Reason:        req.StatusReason,
			At:            now,
		})
		s.notifyFailed(ctx, req)
	}

	zap.L().Info("matching request created",
		zap.String("requestId", req.ID),
		zap.String("reservationId", reservationID),
		zap.String("mode", string(mode)),
		zap.Int("attempt", req.Attempt),
		zap.Int("candidates", len(req.Candidates)),
		zap.String("status", string(req.Status)))
	return req, nil
}

// populateAutoCandidates ranks eligible managers and requests the top K.
func (s *DefaultMatchingService) populateAutoCandidates(ctx context.Context, res *models.Reservation, req *models.MatchingRequest, now time.Time) error {
	snapshot, err := s.Registry.Snapshot(ctx)
	if err != nil {
		return err
	}
	req.CriteriaHash = snapshot.Hash

	managers, err := s.ManagerRepo.ListEligible(ctx, managerRepo.EligibilityCriteria{
		ServiceType:   res.ServiceType,
		LocationGeo:   res.LocationGeo,
		MaxDistanceKm: s.Cfg.SearchRadiusKm,
		Date:          res.Date,
		Start:         res.Start,
		End:           res.End,
	})
	if err != nil {
		return NewDependencyError(err, "listing eligible managers for reservation %s", res.ID)
	}

	ranked := s.rankWithCache(ctx, res, managers, snapshot)
	fanout := s.Cfg.Fanout
	if fanout <= 0 {
		fanout = 3
	}
	if len(ranked) > fanout {
		ranked = ranked[:fanout]
	}

	for i, rc := range ranked {
		req.Candidates = append(req.Candidates, models.CandidateEntry{
			ManagerID:   rc.ManagerID,
			Priority:    i + 1,
			Score:       rc.Score,
			IsRequested: true,
		})
	}
	return nil
}

// populateManualCandidate validates the operator's pick and requests it.
func (s *DefaultMatchingService) populateManualCandidate(ctx context.Context, res *models.Reservation, req *models.MatchingRequest, opts CreateOptions) error {
	if opts.ManagerID == "" {
		return NewValidationError("manual mode requires a manager id")
	}
	m, err := s.ManagerRepo.GetByID(ctx, opts.ManagerID)
	if err != nil {
		if errors.Is(err, managerRepo.ErrNotFound) {
			return NewValidationError("manager %s does not exist", opts.ManagerID)
		}
		return NewDependencyError(err, "fetching manager %s", opts.ManagerID)
	}
	if !m.Active || !m.Serves(res.ServiceType) {
		return NewValidationError("manager %s is not eligible for %s reservations", opts.ManagerID, res.ServiceType)
	}

	req.Candidates = []models.CandidateEntry{{
		ManagerID:   m.ID,
		Priority:    1,
		IsRequested: true,
	}}
	return nil
}

// GetRequest fetches one matching request.
func (s *DefaultMatchingService) GetRequest(ctx context.Context, requestID string) (*models.MatchingRequest, error) {
	req, err := s.MatchingRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, matchingRepo.ErrNotFound) {
			return nil, NewNotFoundError("matching request %s", requestID)
		}
		return nil, NewDependencyError(err, "fetching matching request %s", requestID)
	}
	return req, nil
}

// ListRequests returns the reservation's attempt history, oldest first.
func (s *DefaultMatchingService) ListRequests(ctx context.Context, reservationID string) ([]models.MatchingRequest, error) {
	out, err := s.MatchingRepo.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, NewDependencyError(err, "listing requests for reservation %s", reservationID)
	}
	return out, nil
}

// publish emits a lifecycle event; delivery failures are logged, not
// propagated, since the sink is fire-and-forget.
func (s *DefaultMatchingService) publish(ctx context.Context, evt models.MatchingEvent) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Publish(ctx, evt); err != nil {
		zap.L().Warn("failed to publish matching event",
			zap.String("type", string(evt.Type)),
			zap.String("requestId", evt.RequestID),
			zap.Error(err))
	}
}

// notifyFailed hands a terminal FAILED request to the retry controller.
func (s *DefaultMatchingService) notifyFailed(ctx context.Context, req *models.MatchingRequest) {
	if s.Retry == nil {
		return
	}
	if err := s.Retry.OnRequestFailed(ctx, req.ReservationID, req.ID); err != nil {
		zap.L().Error("retry controller failed",
			zap.String("requestId", req.ID),
			zap.String("reservationId", req.ReservationID),
			zap.Error(err))
	}
}
