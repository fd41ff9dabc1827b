package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidymatch/database"
	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound     = errors.New("reservation not found")
	ErrNoTransition = errors.New("reservation status transition rejected")
)

// MongoReservationRepo implements Repository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo creates a new instance of Repository using MongoDB.
func NewMongoReservationRepo() Repository {
	return &MongoReservationRepo{coll: database.Collection("reservations")}
}

// Create inserts a new reservation document.
func (r *MongoReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(cctx, res); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var res models.Reservation
	if err := r.coll.FindOne(cctx, bson.M{"id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reservation with id %s: %w", id, err)
	}
	return &res, nil
}

// UpdateStatus performs a guarded status transition. The filter on the
// current status makes concurrent transitions race-safe: only one caller
// observes a matched document.
func (r *MongoReservationRepo) UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(cctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation %s status: %w", id, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing document from a stale guard.
		if n, cerr := r.coll.CountDocuments(cctx, bson.M{"id": id}); cerr == nil && n == 0 {
			return ErrNotFound
		}
		return ErrNoTransition
	}
	return nil
}

func (r *MongoReservationRepo) SetNeedsManual(ctx context.Context, id string, needsManual bool) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"needsManual": needsManual, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(cctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to flag reservation %s for manual matching: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReservationRepo) ListNeedingManual(ctx context.Context) ([]models.Reservation, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(cctx, bson.M{"needsManual": true, "status": models.ReservationPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list escalated reservations: %w", err)
	}
	defer cursor.Close(cctx)

	var out []models.Reservation
	for cursor.Next(cctx) {
		var res models.Reservation
		if err := cursor.Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}
