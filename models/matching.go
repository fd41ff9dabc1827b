package models

import "time"

// MatchingMode describes how a matching request was created.
type MatchingMode string

const (
	ModeAuto   MatchingMode = "AUTO"
	ModeManual MatchingMode = "MANUAL"
)

// Valid reports whether the mode is one of the known values.
func (m MatchingMode) Valid() bool {
	return m == ModeAuto || m == ModeManual
}

// RequestStatus is the lifecycle status of a matching request.
type RequestStatus string

const (
	RequestPending RequestStatus = "PENDING"
	RequestMatched RequestStatus = "MATCHED"
	RequestFailed  RequestStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestMatched || s == RequestFailed
}

// Failure reasons recorded on a matching request's status.
const (
	ReasonNoCandidates     = "no candidates"
	ReasonAllDeclined      = "all candidates declined"
	ReasonConsumerRejected = "consumer rejected all offers"
	ReasonSuperseded       = "superseded: another candidate was confirmed"
)

// CandidateEntry tracks one manager's standing within a matching request.
// IsAccepted and IsFinal are write-once: nil means undecided, and a non-nil
// value is never reset, so concurrent responses cannot overwrite a decision.
type CandidateEntry struct {
	ManagerID    string     `bson:"managerId" json:"managerId"`
	Priority     int        `bson:"priority" json:"priority"` // 1 = best ranked
	Score        float64    `bson:"score" json:"score"`
	IsRequested  bool       `bson:"isRequested" json:"isRequested"`
	IsAccepted   *bool      `bson:"isAccepted" json:"isAccepted"`
	RefuseReason string     `bson:"refuseReason,omitempty" json:"refuseReason,omitempty"`
	IsFinal      *bool      `bson:"isFinal" json:"isFinal"`
	FinalReason  string     `bson:"finalReason,omitempty" json:"finalReason,omitempty"`
	RespondedAt  *time.Time `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	DecidedAt    *time.Time `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

// Outstanding reports whether the candidate was asked and has not responded.
func (c CandidateEntry) Outstanding() bool {
	return c.IsRequested && c.IsAccepted == nil
}

// AwaitingDecision reports whether the candidate accepted and is still
// waiting on the consumer's confirm/reject.
func (c CandidateEntry) AwaitingDecision() bool {
	return c.IsAccepted != nil && *c.IsAccepted && c.IsFinal == nil
}

// MatchingRequest is one attempt at pairing a reservation with a manager.
// Status is derived from the candidate states (see DeriveStatus); it is never
// set directly by callers except to PENDING/FAILED at creation.
type MatchingRequest struct {
	ID            string           `bson:"id" json:"id"`
	ReservationID string           `bson:"reservationId" json:"reservationId"`
	Attempt       int              `bson:"attempt" json:"attempt"` // 1-based sequence per reservation
	Mode          MatchingMode     `bson:"mode" json:"mode"`
	Status        RequestStatus    `bson:"status" json:"status"`
	StatusReason  string           `bson:"statusReason,omitempty" json:"statusReason,omitempty"`
	Retired       bool             `bson:"retired" json:"retired"`
	Candidates    []CandidateEntry `bson:"candidates" json:"candidates"`
	// CriteriaHash identifies the criterion registry snapshot the candidate
	// priorities were ranked under.
	CriteriaHash string    `bson:"criteriaHash,omitempty" json:"criteriaHash,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Candidate returns the entry for the given manager, or nil.
func (r *MatchingRequest) Candidate(managerID string) *CandidateEntry {
	for i := range r.Candidates {
		if r.Candidates[i].ManagerID == managerID {
			return &r.Candidates[i]
		}
	}
	return nil
}

// DeriveStatus computes the request status dictated by the candidate states.
//
//	any IsFinal = true                      -> MATCHED
//	no candidates                           -> FAILED (no candidates)
//	no outstanding and no awaiting-decision -> FAILED (all declined, or
//	                                           consumer rejected all offers)
//	otherwise                               -> PENDING
func DeriveStatus(candidates []CandidateEntry) (RequestStatus, string) {
	if len(candidates) == 0 {
		return RequestFailed, ReasonNoCandidates
	}
	for _, c := range candidates {
		if c.IsFinal != nil && *c.IsFinal {
			return RequestMatched, ""
		}
	}
	anyAccepted := false
	for _, c := range candidates {
		if c.Outstanding() || c.AwaitingDecision() {
			return RequestPending, ""
		}
		if c.IsAccepted != nil && *c.IsAccepted {
			anyAccepted = true
		}
	}
	if anyAccepted {
		return RequestFailed, ReasonConsumerRejected
	}
	return RequestFailed, ReasonAllDeclined
}
