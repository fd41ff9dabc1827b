package models

import "time"

// AvailabilityWindow is a recurring weekly window a manager accepts jobs in.
type AvailabilityWindow struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Start   int          `bson:"start" json:"start"` // minutes from midnight
	End     int          `bson:"end" json:"end"`     // minutes from midnight
}

// Manager is a service provider who can be proposed as a match candidate.
type Manager struct {
	ID              string               `bson:"id" json:"id"`
	Name            string               `bson:"name" json:"name"`
	ServiceTypes    []string             `bson:"serviceTypes" json:"serviceTypes"`
	LocationGeo     GeoPoint             `bson:"locationGeo" json:"locationGeo"`
	Rating          float64              `bson:"rating" json:"rating"` // 0..5
	ExperienceYears int                  `bson:"experienceYears" json:"experienceYears"`
	HourlyRate      float64              `bson:"hourlyRate" json:"hourlyRate"`
	CompletedJobs   int                  `bson:"completedJobs" json:"completedJobs"`
	Active          bool                 `bson:"active" json:"active"`
	Availability    []AvailabilityWindow `bson:"availability,omitempty" json:"availability,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Serves reports whether the manager offers the given service type.
func (m Manager) Serves(serviceType string) bool {
	for _, s := range m.ServiceTypes {
		if s == serviceType {
			return true
		}
	}
	return false
}

// AvailableAt reports whether one of the manager's weekly windows covers the
// [start, end) slot on the given date. Managers with no windows configured
// are treated as always available.
func (m Manager) AvailableAt(date string, start, end int) bool {
	if len(m.Availability) == 0 {
		return true
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	for _, w := range m.Availability {
		if w.Weekday == day.Weekday() && w.Start <= start && end <= w.End {
			return true
		}
	}
	return false
}
