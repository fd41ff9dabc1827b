package matchingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FinalizeCandidate commits the consumer's confirmation in a single
// transaction: winner entry, sibling closure, request status, reservation
// status. The guarded first update decides the race; a loser aborts with
// ErrConflict and nothing is persisted.
func (r *MongoMatchingRepo) FinalizeCandidate(ctx context.Context, requestID, managerID, reservationID string, at time.Time) (*models.MatchingRequest, error) {
	client := r.requestColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		// Winner write: only an accepted, undecided entry on a PENDING
		// request matches. Matching zero documents means we lost the race
		// (or the decision is stale).
		winnerFilter := bson.M{
			"id":     requestID,
			"status": models.RequestPending,
			"candidates": bson.M{
				"$elemMatch": bson.M{
					"managerId":  managerID,
					"isAccepted": true,
					"isFinal":    nil,
				},
			},
		}
		winnerUpdate := bson.M{"$set": bson.M{
			"candidates.$.isFinal":   true,
			"candidates.$.decidedAt": at,
			"status":                 models.RequestMatched,
			"statusReason":           "",
			"updatedAt":              at,
		}}
		res, err := r.requestColl.UpdateOne(sc, winnerFilter, winnerUpdate)
		if err != nil {
			return fmt.Errorf("finalize winner write failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrConflict
		}

		// Close every undecided sibling as superseded.
		siblingUpdate := bson.M{"$set": bson.M{
			"candidates.$[other].isFinal":     false,
			"candidates.$[other].finalReason": models.ReasonSuperseded,
			"candidates.$[other].decidedAt":   at,
		}}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{bson.M{
				"other.managerId": bson.M{"$ne": managerID},
				"other.isFinal":   nil,
			}},
		})
		if _, err := r.requestColl.UpdateOne(sc, bson.M{"id": requestID}, siblingUpdate, arrayFilters); err != nil {
			return fmt.Errorf("finalize sibling closure failed: %w", err)
		}

		// Confirm the reservation; a cancelled reservation aborts the match.
		resFilter := bson.M{"id": reservationID, "status": models.ReservationPending}
		resUpdate := bson.M{"$set": bson.M{"status": models.ReservationConfirmed, "updatedAt": at}}
		resResult, err := r.reservationColl.UpdateOne(sc, resFilter, resUpdate)
		if err != nil {
			return fmt.Errorf("finalize reservation confirm failed: %w", err)
		}
		if resResult.MatchedCount == 0 {
			return ErrConflict
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("finalize transaction failed: %w", err)
	}

	return r.GetByID(ctx, requestID)
}
