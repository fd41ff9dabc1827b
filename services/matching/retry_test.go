package matching

import (
	"context"
	"testing"

	"tidymatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failRequest walks one AUTO attempt to FAILED by declining every candidate.
func failRequest(t *testing.T, env *testEnv, reservationID string) *models.MatchingRequest {
	t.Helper()
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, reservationID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	for _, c := range req.Candidates {
		_, err = env.svc.RecordCandidateResponse(ctx, req.ID, c.ManagerID, false, "unavailable")
		require.NoError(t, err)
	}

	stored, err := env.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestFailed, stored.Status)
	return stored
}

func TestRetryControllerSchedulesUntilCeiling(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")

	// Attempts one and two schedule a follow-up.
	failRequest(t, env, res.ID)
	require.Len(t, env.scheduler.calls, 1)
	assert.Equal(t, 2, env.scheduler.calls[0].Attempt)

	failRequest(t, env, res.ID)
	require.Len(t, env.scheduler.calls, 2)
	assert.Equal(t, 3, env.scheduler.calls[1].Attempt)

	// The third failure hits the ceiling: no retry, escalate instead.
	failRequest(t, env, res.ID)
	assert.Len(t, env.scheduler.calls, 2)

	stored, err := env.reservations.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.True(t, stored.NeedsManual)

	escalated, err := env.reservations.ListNeedingManual(context.Background())
	require.NoError(t, err)
	require.Len(t, escalated, 1)
	assert.Equal(t, res.ID, escalated[0].ID)
}

func TestRetryControllerRetiresFailedRequests(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	first := failRequest(t, env, res.ID)

	stored, err := env.requests.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.Retired)

	// Retired history never blocks the next attempt.
	second, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt)
}

func TestRetryControllerRefusesToRetireActiveRequest(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	controller := &DefaultRetryController{
		MatchingRepo:    env.requests,
		ReservationRepo: env.reservations,
		Scheduler:       env.scheduler,
		MaxAutoAttempts: 3,
	}
	err = controller.OnRequestFailed(ctx, res.ID, req.ID)
	assert.True(t, IsConflict(err))
}

func TestManualRequestAfterEscalation(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		failRequest(t, env, res.ID)
	}

	stored, err := env.reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	require.True(t, stored.NeedsManual)

	// The operator steps in with a designated manager and the normal
	// response flow finishes the job.
	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeManual, CreateOptions{ManagerID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, 4, req.Attempt)

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)
	final, err := env.svc.ResolveConsumerDecision(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)

	assert.Equal(t, models.RequestMatched, final.Status)

	confirmed, err := env.reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.Status)
	assert.False(t, confirmed.NeedsManual)
}
