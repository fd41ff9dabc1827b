package models

import "time"

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known values.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return true
	}
	return false
}

// Reservation represents a customer's service booking awaiting a manager match.
type Reservation struct {
	ID          string            `bson:"id" json:"id"`
	CustomerID  string            `bson:"customerId" json:"customerId"`
	ServiceType string            `bson:"serviceType" json:"serviceType"` // e.g., "cleaning", "laundry", "organizing"
	Date        string            `bson:"date" json:"date"`               // "YYYY-MM-DD"
	Start       int               `bson:"start" json:"start"`             // minutes from midnight
	End         int               `bson:"end" json:"end"`                 // minutes from midnight
	Address     string            `bson:"address" json:"address"`
	LocationGeo GeoPoint          `bson:"locationGeo" json:"locationGeo"`
	Status      ReservationStatus `bson:"status" json:"status"`
	// NeedsManual is set once automatic matching has exhausted its attempt
	// ceiling; only an operator-designated MANUAL request clears it.
	NeedsManual bool      `bson:"needsManual" json:"needsManual"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
