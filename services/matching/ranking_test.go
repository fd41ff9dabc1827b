package matching

import (
	"context"
	"testing"

	"tidymatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFor(t *testing.T, env *testEnv) *CriterionSnapshot {
	t.Helper()
	snap, err := env.svc.Registry.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestRankEmptyInput(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")

	ranked := env.svc.Rank(res, nil, snapshotFor(t, env))
	assert.Empty(t, ranked)
}

func TestRankScoresWithinUnitInterval(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")

	managers := []models.Manager{
		testManager("m1", "cleaning"),
		testManager("m2", "cleaning"),
		testManager("m3", "laundry"),
	}
	ranked := env.svc.Rank(res, managers, snapshotFor(t, env))
	require.Len(t, ranked, 3)
	for _, rc := range ranked {
		assert.GreaterOrEqual(t, rc.Score, 0.0)
		assert.LessOrEqual(t, rc.Score, 1.0)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")
	snap := snapshotFor(t, env)

	managers := []models.Manager{
		testManager("m3", "cleaning"),
		testManager("m1", "cleaning"),
		testManager("m2", "cleaning"),
	}

	first := env.svc.Rank(res, managers, snap)
	for i := 0; i < 10; i++ {
		again := env.svc.Rank(res, managers, snap)
		assert.Equal(t, first, again)
	}
}

func TestRankBreaksTiesByManagerID(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")

	// Identical profiles, so identical scores.
	managers := []models.Manager{
		testManager("m2", "cleaning"),
		testManager("m1", "cleaning"),
	}
	ranked := env.svc.Rank(res, managers, snapshotFor(t, env))
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, "m1", ranked[0].ManagerID)
	assert.Equal(t, "m2", ranked[1].ManagerID)
}

func TestRankPrefersBetterProfiles(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")

	strong := testManager("strong", "cleaning")
	strong.Rating = 5
	strong.ExperienceYears = 12
	strong.HourlyRate = 20

	weak := testManager("weak", "cleaning")
	weak.Rating = 2
	weak.ExperienceYears = 1
	weak.HourlyRate = 95

	ranked := env.svc.Rank(res, []models.Manager{weak, strong}, snapshotFor(t, env))
	require.Len(t, ranked, 2)
	assert.Equal(t, "strong", ranked[0].ManagerID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankHonorsWeightChangesViaSnapshot(t *testing.T) {
	env := newTestEnv()
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	// Near but low rated vs far but excellent.
	near := testManager("near", "cleaning")
	near.Rating = 1
	near.LocationGeo = res.LocationGeo

	far := testManager("far", "cleaning")
	far.Rating = 5
	far.LocationGeo = models.NewGeoPoint(36.8219, -1.3280) // ~4 km south

	managers := []models.Manager{near, far}

	before := env.svc.Rank(res, managers, snapshotFor(t, env))
	require.Equal(t, "near", before[0].ManagerID)

	// Flip the emphasis to rating and the ordering flips with it.
	require.NoError(t, env.svc.Registry.SetWeight(ctx, "location", 5))
	require.NoError(t, env.svc.Registry.SetWeight(ctx, "rating", 80))

	after := env.svc.Rank(res, managers, snapshotFor(t, env))
	require.Equal(t, "far", after[0].ManagerID)
}

func TestSnapshotHashChangesWithWeights(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := snapshotFor(t, env)
	require.NoError(t, env.svc.Registry.SetWeight(ctx, "rating", 50))
	second := snapshotFor(t, env)

	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestSubScoreLocationOutsideRadius(t *testing.T) {
	res := &models.Reservation{
		ServiceType: "cleaning",
		LocationGeo: models.NewGeoPoint(36.8219, -1.2921),
	}
	m := testManager("m1", "cleaning")
	m.LocationGeo = models.NewGeoPoint(37.1, -1.9) // well over 5 km away

	assert.Equal(t, 0.0, subScore(models.CriterionLocation, res, m, 5.0))
}

func TestSubScoreCategoryMembership(t *testing.T) {
	res := &models.Reservation{ServiceType: "organizing"}
	in := testManager("in", "organizing")
	out := testManager("out", "cleaning")

	assert.Equal(t, 1.0, subScore(models.CriterionCategory, res, in, 5.0))
	assert.Equal(t, 0.0, subScore(models.CriterionCategory, res, out, 5.0))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Nairobi CBD to Westlands is roughly 3 km.
	d := haversine(-1.2921, 36.8219, -1.2673, 36.8111)
	assert.InDelta(t, 3.0, d, 0.5)
}
