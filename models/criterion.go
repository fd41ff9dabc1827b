package models

import "time"

// CriterionType identifies what a ranking criterion measures.
type CriterionType string

const (
	CriterionLocation   CriterionType = "location"
	CriterionRating     CriterionType = "rating"
	CriterionExperience CriterionType = "experience"
	CriterionPrice      CriterionType = "price"
	CriterionCategory   CriterionType = "category"
	CriterionCustom     CriterionType = "custom"
)

// Valid reports whether the type is one of the known values.
func (t CriterionType) Valid() bool {
	switch t {
	case CriterionLocation, CriterionRating, CriterionExperience,
		CriterionPrice, CriterionCategory, CriterionCustom:
		return true
	}
	return false
}

// Criterion is one operator-configured ranking dimension. Weights are
// informational as stored; the ranking engine normalizes by the sum of
// active weights at evaluation time.
type Criterion struct {
	ID        string        `bson:"id" json:"id"`
	Type      CriterionType `bson:"type" json:"type"`
	Weight    int           `bson:"weight" json:"weight"` // 0..100
	Active    bool          `bson:"active" json:"active"`
	Options   []string      `bson:"options,omitempty" json:"options,omitempty"` // e.g., distance bands
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
