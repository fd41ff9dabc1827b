package matchingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates indexes for frequently used fields in queries.
func (r *MongoMatchingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Partial unique index: at most one non-terminal request per reservation.
	activeOpts := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"status": "PENDING"})

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reservationId", Value: 1}, {Key: "attempt", Value: 1}}},
		{Keys: bson.D{{Key: "reservationId", Value: 1}}, Options: activeOpts},
		{Keys: bson.D{{Key: "reservationId", Value: 1}, {Key: "retired", Value: 1}}},
	}
	if _, err := r.requestColl.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create matching request indexes: %w", err)
	}
	return nil
}
