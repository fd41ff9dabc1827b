package reservation

import (
	"context"
	"errors"
	"time"

	reservationRepo "tidymatch/database/repository/reservation"
	"tidymatch/models"
	"tidymatch/services/matching"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages the reservation records the matching engine works on.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reservation, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	Cancel(ctx context.Context, id string) error
	ListNeedingManual(ctx context.Context) ([]models.Reservation, error)
}

// CreateInput carries the fields for a new reservation.
type CreateInput struct {
	CustomerID  string  `json:"customerId"`
	ServiceType string  `json:"serviceType"`
	Date        string  `json:"date"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Address     string  `json:"address"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
}

// DefaultReservationService is the production implementation.
type DefaultReservationService struct {
	Repo reservationRepo.Repository
}

func (s *DefaultReservationService) Create(ctx context.Context, input CreateInput) (*models.Reservation, error) {
	if input.CustomerID == "" {
		return nil, matching.NewValidationError("customer id is required")
	}
	if input.ServiceType == "" {
		return nil, matching.NewValidationError("service type is required")
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		return nil, matching.NewValidationError("date %q is not YYYY-MM-DD", input.Date)
	}
	if input.Start < 0 || input.End > 24*60 || input.Start >= input.End {
		return nil, matching.NewValidationError("invalid time window [%d, %d)", input.Start, input.End)
	}

	now := time.Now()
	res := &models.Reservation{
		ID:          uuid.New().String(),
		CustomerID:  input.CustomerID,
		ServiceType: input.ServiceType,
		Date:        input.Date,
		Start:       input.Start,
		End:         input.End,
		Address:     input.Address,
		LocationGeo: models.NewGeoPoint(input.Longitude, input.Latitude),
		Status:      models.ReservationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, res); err != nil {
		return nil, matching.NewDependencyError(err, "persisting reservation")
	}

	zap.L().Info("reservation created",
		zap.String("reservationId", res.ID),
		zap.String("serviceType", res.ServiceType))
	return res, nil
}

func (s *DefaultReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, matching.NewNotFoundError("reservation %s", id)
		}
		return nil, matching.NewDependencyError(err, "fetching reservation %s", id)
	}
	return res, nil
}

// Cancel moves a pending reservation to CANCELLED. Any in-flight matching
// request stays as-is; subsequent candidate responses are rejected by the
// engine's cancellation check.
func (s *DefaultReservationService) Cancel(ctx context.Context, id string) error {
	err := s.Repo.UpdateStatus(ctx, id, models.ReservationPending, models.ReservationCancelled)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return matching.NewNotFoundError("reservation %s", id)
		}
		if errors.Is(err, reservationRepo.ErrNoTransition) {
			return matching.NewConflictError("reservation %s is not pending", id)
		}
		return matching.NewDependencyError(err, "cancelling reservation %s", id)
	}
	zap.L().Info("reservation cancelled", zap.String("reservationId", id))
	return nil
}

func (s *DefaultReservationService) ListNeedingManual(ctx context.Context) ([]models.Reservation, error) {
	out, err := s.Repo.ListNeedingManual(ctx)
	if err != nil {
		return nil, matching.NewDependencyError(err, "listing escalated reservations")
	}
	return out, nil
}
