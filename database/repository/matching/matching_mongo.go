package matchingRepo

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
	"go.uber.org/zap"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound = errors.New("matching request or candidate not found")
	ErrConflict = errors.New("matching request write conflict")
)

// MongoMatchingRepo implements Repository using MongoDB.
type MongoMatchingRepo struct {
	requestColl     *mongo.Collection
	reservationColl *mongo.Collection
}

// NewMongoMatchingRepo creates a new instance of Repository using MongoDB.
func NewMongoMatchingRepo() Repository {
	repo := &MongoMatchingRepo{
		requestColl:     database.Collection("matching_requests"),
		reservationColl: database.Collection("reservations"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		zap.L().Warn("failed to ensure matching request indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoMatchingRepo) Create(ctx context.Context, req *models.MatchingRequest) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.requestColl.InsertOne(cctx, req); err != nil {
		return fmt.Errorf("failed to create matching request: %w", err)
	}
	return nil
}

func (r *MongoMatchingRepo) GetByID(ctx context.Context, id string) (*models.MatchingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var req models.MatchingRequest
	if err := r.requestColl.FindOne(cctx, bson.M{"id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch matching request with id %s: %w", id, err)
	}
	return &req, nil
}

func (r *MongoMatchingRepo) GetActiveByReservation(ctx context.Context, reservationID string) (*models.MatchingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"reservationId": reservationID, "status": models.RequestPending}
	var req models.MatchingRequest
	if err := r.requestColl.FindOne(cctx, filter).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch active request for reservation %s: %w", reservationID, err)
	}
	return &req, nil
}

func (r *MongoMatchingRepo) ListByReservation(ctx context.Context, reservationID string) ([]models.MatchingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "attempt", Value: 1}})
	cursor, err := r.requestColl.Find(cctx, bson.M{"reservationId": reservationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for reservation %s: %w", reservationID, err)
	}
	defer cursor.Close(cctx)

	var out []models.MatchingRequest
	for cursor.Next(cctx) {
		var req models.MatchingRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode matching request: %w", err)
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *MongoMatchingRepo) CountByReservation(ctx context.Context, reservationID string) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.requestColl.CountDocuments(cctx, bson.M{"reservationId": reservationID})
	if err != nil {
		return 0, fmt.Errorf("failed to count requests for reservation %s: %w", reservationID, err)
	}
	return int(n), nil
}

func (r *MongoMatchingRepo) CountRetired(ctx context.Context, reservationID string) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.requestColl.CountDocuments(cctx, bson.M{"reservationId": reservationID, "retired": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count retired requests for reservation %s: %w", reservationID, err)
	}
	return int(n), nil
}

func (r *MongoMatchingRepo) Retire(ctx context.Context, requestID string) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     requestID,
		"status": bson.M{"$in": bson.A{models.RequestMatched, models.RequestFailed}},
	}
	update := bson.M{"$set": bson.M{"retired": true, "updatedAt": time.Now()}}
	result, err := r.requestColl.UpdateOne(cctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to retire request %s: %w", requestID, err)
	}
	if result.MatchedCount == 0 {
		if n, cerr := r.requestColl.CountDocuments(cctx, bson.M{"id": requestID}); cerr == nil && n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
