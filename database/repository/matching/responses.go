package matchingRepo

import (
	"context"
	"fmt"
	"time"

	"tidymatch/models"

	"go.mongodb.org/mongo-driver/bson"
)

// SetCandidateResponse records a candidate's accept/decline with write-once
// semantics. The $elemMatch filter on isAccepted:null is the compare-and-set:
// the first response matches and writes, every later one matches nothing.
func (r *MongoMatchingRepo) SetCandidateResponse(ctx context.Context, requestID, managerID string, accepted bool, refuseReason string, at time.Time) (*models.MatchingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     requestID,
		"status": models.RequestPending,
		"candidates": bson.M{
			"$elemMatch": bson.M{
				"managerId":   managerID,
				"isRequested": true,
				"isAccepted":  nil,
			},
		},
	}
	set := bson.M{
		"candidates.$.isAccepted":  accepted,
		"candidates.$.respondedAt": at,
		"updatedAt":                at,
	}
	if !accepted {
		set["candidates.$.refuseReason"] = refuseReason
	}

	result, err := r.requestColl.UpdateOne(cctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to record response for request %s manager %s: %w", requestID, managerID, err)
	}
	if result.MatchedCount == 0 {
		return nil, r.classifyResponseMiss(cctx, requestID, managerID)
	}
	return r.GetByID(cctx, requestID)
}

// classifyResponseMiss turns a CAS miss into the precise sentinel: unknown
// request/candidate vs. an already-written response.
func (r *MongoMatchingRepo) classifyResponseMiss(ctx context.Context, requestID, managerID string) error {
	req, err := r.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	entry := req.Candidate(managerID)
	if entry == nil || !entry.IsRequested {
		return ErrNotFound
	}
	return ErrConflict
}

// RejectCandidate records the consumer's rejection of one accepted entry.
// Write-once on isFinal: only an accepted, undecided entry matches.
func (r *MongoMatchingRepo) RejectCandidate(ctx context.Context, requestID, managerID, reason string, at time.Time) (*models.MatchingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
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
	update := bson.M{"$set": bson.M{
		"candidates.$.isFinal":     false,
		"candidates.$.finalReason": reason,
		"candidates.$.decidedAt":   at,
		"updatedAt":                at,
	}}

	result, err := r.requestColl.UpdateOne(cctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to reject candidate %s on request %s: %w", managerID, requestID, err)
	}
	if result.MatchedCount == 0 {
		req, gerr := r.GetByID(cctx, requestID)
		if gerr != nil {
			return nil, gerr
		}
		if req.Candidate(managerID) == nil {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}
	return r.GetByID(cctx, requestID)
}

// MarkFailedIfExhausted transitions PENDING -> FAILED once every candidate is
// closed. The guard filter re-asserts exhaustion inside the update so the
// transition cannot race a late response into an inconsistent status.
func (r *MongoMatchingRepo) MarkFailedIfExhausted(ctx context.Context, requestID, reason string) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     requestID,
		"status": models.RequestPending,
		"candidates": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{
					"$or": bson.A{
						// still outstanding
						bson.M{"isRequested": true, "isAccepted": nil},
						// accepted, awaiting consumer decision
						bson.M{"isAccepted": true, "isFinal": nil},
					},
				},
			},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":       models.RequestFailed,
		"statusReason": reason,
		"updatedAt":    time.Now(),
	}}

	result, err := r.requestColl.UpdateOne(cctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark request %s failed: %w", requestID, err)
	}
	return result.ModifiedCount > 0, nil
}
