package auditRepo

import (
	"context"
	"fmt"
	"time"

	"tidymatch/database"
	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuditRepo implements Repository using MongoDB.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates a new instance of Repository using MongoDB.
func NewMongoAuditRepo() Repository {
	return &MongoAuditRepo{coll: database.Collection("events")}
}

func (r *MongoAuditRepo) Insert(ctx context.Context, evt *models.MatchingEvent) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(cctx, evt); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

func (r *MongoAuditRepo) ListByRequest(ctx context.Context, requestID string) ([]models.MatchingEvent, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cursor, err := r.coll.Find(cctx, bson.M{"requestId": requestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for request %s: %w", requestID, err)
	}
	defer cursor.Close(cctx)

	var out []models.MatchingEvent
	if err := cursor.All(cctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return out, nil
}
