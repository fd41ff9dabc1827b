package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"tidymatch/models"

	"go.uber.org/zap"
)

// RankedCandidate is one scored manager in ranking order.
type RankedCandidate struct {
	ManagerID string  `json:"managerId"`
	Score     float64 `json:"score"` // normalized to [0,1]
}

// Reference values for sub-score normalization.
const (
	// referenceExperienceYears caps the experience sub-score.
	referenceExperienceYears = 10.0
	// referenceHourlyRate is the rate at which the price sub-score reaches 0.
	referenceHourlyRate = 100.0
	// referenceCompletedJobs is where the log-scaled custom sub-score tops out.
	referenceCompletedJobs = 100.0
)

// Rank scores the eligible managers against the criterion snapshot and
// orders them best first. Equal scores break ties by manager id ascending,
// so the output is fully deterministic for identical inputs. Eligibility
// filtering happened upstream; an empty input yields an empty ranking.
func (s *DefaultMatchingService) Rank(res *models.Reservation, managers []models.Manager, snapshot *CriterionSnapshot) []RankedCandidate {
	if len(managers) == 0 {
		return []RankedCandidate{}
	}

	totalWeight := snapshot.TotalWeight()
	ranked := make([]RankedCandidate, 0, len(managers))
	for _, m := range managers {
		var weighted float64
		for _, c := range snapshot.Criteria {
			weighted += float64(c.Weight) * subScore(c.Type, res, m, s.Cfg.SearchRadiusKm)
		}
		score := 0.0
		if totalWeight > 0 {
			score = weighted / float64(totalWeight)
		}
		ranked = append(ranked, RankedCandidate{ManagerID: m.ID, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ManagerID < ranked[j].ManagerID
	})
	return ranked
}

// subScore computes one criterion's normalized contribution in [0,1].
func subScore(t models.CriterionType, res *models.Reservation, m models.Manager, radiusKm float64) float64 {
	switch t {
	case models.CriterionLocation:
		if radiusKm <= 0 {
			return 0
		}
		distanceKm := haversine(res.LocationGeo.Lat(), res.LocationGeo.Lon(), m.LocationGeo.Lat(), m.LocationGeo.Lon())
		if distanceKm >= radiusKm {
			return 0
		}
		return 1 - distanceKm/radiusKm
	case models.CriterionRating:
		rating := m.Rating
		if rating > 5 {
			rating = 5
		}
		if rating < 0 {
			rating = 0
		}
		return rating / 5
	case models.CriterionExperience:
		years := float64(m.ExperienceYears)
		if years > referenceExperienceYears {
			years = referenceExperienceYears
		}
		return years / referenceExperienceYears
	case models.CriterionPrice:
		if m.HourlyRate <= 0 {
			return 1
		}
		ratio := m.HourlyRate / referenceHourlyRate
		if ratio > 1 {
			ratio = 1
		}
		return 1 - ratio
	case models.CriterionCategory:
		if m.Serves(res.ServiceType) {
			return 1
		}
		return 0
	case models.CriterionCustom:
		// Log-scaled completed-jobs score, capped at the reference count.
		return math.Log10(float64(m.CompletedJobs)+1) / math.Log10(referenceCompletedJobs+1)
	}
	return 0
}

// haversine calculates the great-circle distance (in km) between two lat/lon points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// rankWithCache returns the cached ranking for this reservation/snapshot
// pair when present, computing and caching it otherwise. The snapshot hash
// in the key makes registry changes invalidate naturally.
func (s *DefaultMatchingService) rankWithCache(ctx context.Context, res *models.Reservation, managers []models.Manager, snapshot *CriterionSnapshot) []RankedCandidate {
	if s.CacheClient == nil {
		return s.Rank(res, managers, snapshot)
	}

	cacheKey := fmt.Sprintf("rank:%s:%s:%s:%d:%d:%s",
		res.ID, res.ServiceType, res.Date, res.Start, res.End, snapshot.Hash)

	if cached, err := s.CacheClient.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		var ranked []RankedCandidate
		if err := json.Unmarshal([]byte(cached), &ranked); err == nil {
			return ranked
		}
		// Fall through to re-computation on a stale payload.
	}

	ranked := s.Rank(res, managers, snapshot)
	if data, err := json.Marshal(ranked); err == nil {
		ttl := time.Duration(s.Cfg.RankCacheTTLSec) * time.Second
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		if err := s.CacheClient.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
			zap.L().Warn("failed to cache ranking", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return ranked
}
