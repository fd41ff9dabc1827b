package models

import (
	"fmt"
	"time"
)

// EventType names a matching lifecycle transition.
type EventType string

const (
	EventRequestCreated     EventType = "RequestCreated"
	EventCandidateResponded EventType = "CandidateResponded"
	EventRequestMatched     EventType = "RequestMatched"
	EventRequestFailed      EventType = "RequestFailed"
)

// MatchingEvent is emitted once per state transition. Delivery is
// at-least-once; consumers deduplicate by DedupKey.
type MatchingEvent struct {
	Type          EventType `bson:"type" json:"type"`
	RequestID     string    `bson:"requestId" json:"requestId"`
	ReservationID string    `bson:"reservationId" json:"reservationId"`
	ManagerID     string    `bson:"managerId,omitempty" json:"managerId,omitempty"`
	Attempt       int       `bson:"attempt" json:"attempt"`
	Accepted      *bool     `bson:"accepted,omitempty" json:"accepted,omitempty"` // for CandidateResponded
	Reason        string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At            time.Time `bson:"at" json:"at"`
}

// DedupKey identifies the transition for at-least-once consumers.
func (e MatchingEvent) DedupKey() string {
	return fmt.Sprintf("evt:%s:%s:%s", e.RequestID, e.Type, e.ManagerID)
}
