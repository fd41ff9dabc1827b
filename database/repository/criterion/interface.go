package criterionRepo

import (
	"context"

	"tidymatch/models"
)

// Repository defines methods for ranking criterion configuration access.
type Repository interface {
	// ListActive returns the criteria with active = true.
	ListActive(ctx context.Context) ([]models.Criterion, error)
	// List returns all configured criteria.
	List(ctx context.Context) ([]models.Criterion, error)
	// SetWeight updates a criterion's weight. ErrNotFound for unknown ids.
	SetWeight(ctx context.Context, id string, weight int) error
	// SetActive toggles a criterion on or off for subsequent ranking runs.
	SetActive(ctx context.Context, id string, active bool) error
	// Seed installs the given criteria when the store is empty.
	Seed(ctx context.Context, defaults []models.Criterion) error
}
