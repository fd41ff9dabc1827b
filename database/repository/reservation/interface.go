package reservationRepo

import (
	"context"

	"tidymatch/models"
)

// Repository defines methods for reservation data access.
type Repository interface {
	// Create inserts a new reservation record.
	Create(ctx context.Context, r *models.Reservation) error
	// GetByID retrieves a reservation by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// UpdateStatus transitions the reservation status, guarded by the
	// expected current status. Returns ErrNoTransition when the guard fails.
	UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus) error
	// SetNeedsManual flags or clears the manual-escalation marker.
	SetNeedsManual(ctx context.Context, id string, needsManual bool) error
	// ListNeedingManual returns reservations waiting on an operator.
	ListNeedingManual(ctx context.Context) ([]models.Reservation, error)
}
