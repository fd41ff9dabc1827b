package matchingRepo

import (
	"context"
	"time"

	"tidymatch/models"
)

// Repository defines methods for matching request data access.
//
// The request document with its embedded candidate list is the unit of
// mutual exclusion: response writes are conditional single-document updates
// (write-once compare-and-set) and the finalize step runs in a transaction
// that also closes siblings and confirms the reservation.
type Repository interface {
	// Create inserts a new matching request with its candidate entries.
	Create(ctx context.Context, req *models.MatchingRequest) error
	// GetByID retrieves a request by its unique ID.
	GetByID(ctx context.Context, id string) (*models.MatchingRequest, error)
	// GetActiveByReservation returns the reservation's non-terminal request,
	// or ErrNotFound when none exists.
	GetActiveByReservation(ctx context.Context, reservationID string) (*models.MatchingRequest, error)
	// ListByReservation returns all requests for a reservation, oldest first.
	ListByReservation(ctx context.Context, reservationID string) ([]models.MatchingRequest, error)
	// CountByReservation returns the number of requests ever created for the
	// reservation (the next attempt's sequence number minus one).
	CountByReservation(ctx context.Context, reservationID string) (int, error)
	// CountRetired returns the number of retired requests (the attempt counter).
	CountRetired(ctx context.Context, reservationID string) (int, error)

	// SetCandidateResponse records an accept/decline for one candidate.
	// The write succeeds only while isAccepted is still null (write-once);
	// a second response returns ErrConflict, an unknown pair ErrNotFound.
	// Returns the updated request.
	SetCandidateResponse(ctx context.Context, requestID, managerID string, accepted bool, refuseReason string, at time.Time) (*models.MatchingRequest, error)

	// FinalizeCandidate atomically sets isFinal=true on the target entry,
	// isFinal=false (superseded) on all undecided siblings, the request
	// status to MATCHED, and the reservation status to CONFIRMED. The loser
	// of a concurrent finalize race gets ErrConflict and no partial state
	// is persisted.
	FinalizeCandidate(ctx context.Context, requestID, managerID, reservationID string, at time.Time) (*models.MatchingRequest, error)

	// RejectCandidate records the consumer's rejection of an accepted entry
	// (isFinal=false with reason). Succeeds only while the entry is accepted
	// and undecided; otherwise ErrConflict/ErrNotFound.
	RejectCandidate(ctx context.Context, requestID, managerID, reason string, at time.Time) (*models.MatchingRequest, error)

	// MarkFailedIfExhausted moves a PENDING request to FAILED with the given
	// reason, guarded by a filter asserting no candidate is still outstanding
	// or awaiting a consumer decision. Reports whether the transition fired.
	MarkFailedIfExhausted(ctx context.Context, requestID, reason string) (bool, error)

	// Retire marks a terminal request as historical. ErrConflict when the
	// request is still active.
	Retire(ctx context.Context, requestID string) error
}
