package managerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidymatch/database"
	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no manager matches the given id.
var ErrNotFound = errors.New("manager not found")

// MongoManagerRepo implements Repository using MongoDB.
type MongoManagerRepo struct {
	coll *mongo.Collection
}

// NewMongoManagerRepo creates a new instance of Repository using MongoDB.
func NewMongoManagerRepo() Repository {
	repo := &MongoManagerRepo{coll: database.Collection("managers")}
	if err := repo.EnsureIndexes(); err != nil {
		zap.L().Warn("failed to ensure manager indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoManagerRepo) GetByID(ctx context.Context, id string) (*models.Manager, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var m models.Manager
	if err := r.coll.FindOne(cctx, bson.M{"id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch manager with id %s: %w", id, err)
	}
	return &m, nil
}

func (r *MongoManagerRepo) Create(ctx context.Context, m *models.Manager) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(cctx, m); err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	return nil
}

func (r *MongoManagerRepo) List(ctx context.Context) ([]models.Manager, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(cctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer cursor.Close(cctx)

	var out []models.Manager
	if err := cursor.All(cctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode managers: %w", err)
	}
	return out, nil
}

// ListEligible runs the eligibility pre-filter: geo bound via $geoNear,
// category and active flag via $match, availability in-process (weekly
// windows are too irregular to express in the pipeline).
func (r *MongoManagerRepo) ListEligible(ctx context.Context, criteria EligibilityCriteria) ([]models.Manager, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var pipeline mongo.Pipeline

	// $geoNear must come first to filter and sort by distance.
	if criteria.MaxDistanceKm > 0 && len(criteria.LocationGeo.Coordinates) == 2 {
		pipeline = append(pipeline, bson.D{
			{Key: "$geoNear", Value: bson.D{
				{Key: "near", Value: bson.D{
					{Key: "type", Value: "Point"},
					{Key: "coordinates", Value: criteria.LocationGeo.Coordinates},
				}},
				{Key: "distanceField", Value: "distance"},
				{Key: "spherical", Value: true},
				{Key: "maxDistance", Value: criteria.MaxDistanceKm * 1000},
			}},
		})
	}

	matchFilter := bson.M{"active": true}
	if criteria.ServiceType != "" {
		matchFilter["serviceTypes"] = criteria.ServiceType
	}
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchFilter}})

	cursor, err := r.coll.Aggregate(cctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("eligibility query failed: %w", err)
	}
	defer cursor.Close(cctx)

	var managers []models.Manager
	if err := cursor.All(cctx, &managers); err != nil {
		return nil, fmt.Errorf("failed to decode managers: %w", err)
	}

	if criteria.Date == "" {
		return managers, nil
	}
	eligible := managers[:0]
	for _, m := range managers {
		if m.AvailableAt(criteria.Date, criteria.Start, criteria.End) {
			eligible = append(eligible, m)
		}
	}
	return eligible, nil
}
