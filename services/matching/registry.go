package matching

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	criterionRepo "tidymatch/database/repository/criterion"
	"tidymatch/models"
)

// CriterionSnapshot is the registry state frozen for one ranking run, so a
// concurrent weight change cannot alter a computation in flight. The hash
// identifies the snapshot for caching and audit.
type CriterionSnapshot struct {
	Criteria []models.Criterion
	Hash     string
}

// TotalWeight returns the sum of the snapshot's weights.
func (s CriterionSnapshot) TotalWeight() int {
	total := 0
	for _, c := range s.Criteria {
		total += c.Weight
	}
	return total
}

// CriterionRegistry holds the active ranking criteria and their weights.
type CriterionRegistry interface {
	ListActive(ctx context.Context) ([]models.Criterion, error)
	List(ctx context.Context) ([]models.Criterion, error)
	SetWeight(ctx context.Context, id string, weight int) error
	SetActive(ctx context.Context, id string, active bool) error
	// Snapshot freezes the active criteria for one ranking run.
	Snapshot(ctx context.Context) (*CriterionSnapshot, error)
}

// DefaultCriterionRegistry is the production implementation.
type DefaultCriterionRegistry struct {
	Repo criterionRepo.Repository
}

func (r *DefaultCriterionRegistry) ListActive(ctx context.Context) ([]models.Criterion, error) {
	out, err := r.Repo.ListActive(ctx)
	if err != nil {
		return nil, NewDependencyError(err, "listing active criteria")
	}
	return out, nil
}

func (r *DefaultCriterionRegistry) List(ctx context.Context) ([]models.Criterion, error) {
	out, err := r.Repo.List(ctx)
	if err != nil {
		return nil, NewDependencyError(err, "listing criteria")
	}
	return out, nil
}

func (r *DefaultCriterionRegistry) SetWeight(ctx context.Context, id string, weight int) error {
	if weight < 0 || weight > 100 {
		return NewValidationError("weight %d outside [0,100]", weight)
	}
	if err := r.Repo.SetWeight(ctx, id, weight); err != nil {
		if errors.Is(err, criterionRepo.ErrNotFound) {
			return NewNotFoundError("criterion %s", id)
		}
		return NewDependencyError(err, "updating criterion %s", id)
	}
	return nil
}

func (r *DefaultCriterionRegistry) SetActive(ctx context.Context, id string, active bool) error {
	if err := r.Repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, criterionRepo.ErrNotFound) {
			return NewNotFoundError("criterion %s", id)
		}
		return NewDependencyError(err, "updating criterion %s", id)
	}
	return nil
}

// Snapshot reads the active criteria once and fingerprints them. The repo
// returns criteria ordered by id, so equal configurations hash equally.
func (r *DefaultCriterionRegistry) Snapshot(ctx context.Context) (*CriterionSnapshot, error) {
	criteria, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	for _, c := range criteria {
		fmt.Fprintf(h, "%s|%s|%d;", c.ID, c.Type, c.Weight)
	}
	return &CriterionSnapshot{
		Criteria: criteria,
		Hash:     fmt.Sprintf("%x", h.Sum(nil)[:12]),
	}, nil
}

// DefaultCriteria is the criterion set installed on first run.
func DefaultCriteria() []models.Criterion {
	now := time.Now()
	return []models.Criterion{
		{ID: "location", Type: models.CriterionLocation, Weight: 40, Active: true, Options: []string{"0-1km", "1-3km", "3-5km"}, UpdatedAt: now},
		{ID: "rating", Type: models.CriterionRating, Weight: 30, Active: true, UpdatedAt: now},
		{ID: "experience", Type: models.CriterionExperience, Weight: 15, Active: true, UpdatedAt: now},
		{ID: "price", Type: models.CriterionPrice, Weight: 10, Active: true, UpdatedAt: now},
		{ID: "category", Type: models.CriterionCategory, Weight: 5, Active: true, UpdatedAt: now},
	}
}
