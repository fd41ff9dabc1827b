package managerRepo

import (
	"context"

	"tidymatch/models"
)

// EligibilityCriteria narrows the manager search before ranking: service
// category, geographic bound, and the requested time window.
type EligibilityCriteria struct {
	ServiceType   string
	LocationGeo   models.GeoPoint
	MaxDistanceKm float64
	Date          string // "YYYY-MM-DD"
	Start         int    // minutes from midnight
	End           int
}

// Repository defines methods for manager directory access. The matching
// engine only reads from it.
type Repository interface {
	// GetByID retrieves a manager by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Manager, error)
	// ListEligible returns active managers serving the criteria's category
	// within the geographic bound and available for the time window.
	ListEligible(ctx context.Context, criteria EligibilityCriteria) ([]models.Manager, error)
	// Create inserts a new manager record.
	Create(ctx context.Context, m *models.Manager) error
	// List returns all managers.
	List(ctx context.Context) ([]models.Manager, error)
}
