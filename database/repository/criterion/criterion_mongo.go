package criterionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidymatch/database"
	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no criterion matches the given id.
var ErrNotFound = errors.New("criterion not found")

// MongoCriterionRepo implements Repository using MongoDB.
type MongoCriterionRepo struct {
	coll *mongo.Collection
}

// NewMongoCriterionRepo creates a new instance of Repository using MongoDB.
func NewMongoCriterionRepo() Repository {
	return &MongoCriterionRepo{coll: database.Collection("criteria")}
}

func (r *MongoCriterionRepo) ListActive(ctx context.Context) ([]models.Criterion, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *MongoCriterionRepo) List(ctx context.Context) ([]models.Criterion, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoCriterionRepo) find(ctx context.Context, filter bson.M) ([]models.Criterion, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := r.coll.Find(cctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	defer cursor.Close(cctx)

	var out []models.Criterion
	if err := cursor.All(cctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode criteria: %w", err)
	}
	return out, nil
}

func (r *MongoCriterionRepo) SetWeight(ctx context.Context, id string, weight int) error {
	return r.setField(ctx, id, bson.M{"weight": weight})
}

func (r *MongoCriterionRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.setField(ctx, id, bson.M{"active": active})
}

func (r *MongoCriterionRepo) setField(ctx context.Context, id string, fields bson.M) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(cctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update criterion %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed installs the default criterion set on first run.
func (r *MongoCriterionRepo) Seed(ctx context.Context, defaults []models.Criterion) error {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(cctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count criteria: %w", err)
	}
	if n > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(defaults))
	for _, c := range defaults {
		docs = append(docs, c)
	}
	if _, err := r.coll.InsertMany(cctx, docs); err != nil {
		return fmt.Errorf("failed to seed criteria: %w", err)
	}
	return nil
}
