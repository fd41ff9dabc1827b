package matching

import (
	"context"
	"testing"

	"tidymatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCandidateResponseAccept(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"), testManager("m2", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	entry, err := env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)

	require.NotNil(t, entry.IsAccepted)
	assert.True(t, *entry.IsAccepted)
	assert.Nil(t, entry.IsFinal)
	assert.NotNil(t, entry.RespondedAt)

	// An acceptance keeps the request open for the consumer's decision.
	stored, err := env.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, stored.Status)

	responded := env.notifier.byType(models.EventCandidateResponded)
	require.Len(t, responded, 1)
	require.NotNil(t, responded[0].Accepted)
	assert.True(t, *responded[0].Accepted)
}

func TestRecordCandidateResponseIsWriteOnce(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)

	// Neither a repeat nor a flip can overwrite the first answer.
	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	assert.True(t, IsConflict(err))
	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", false, "changed my mind")
	assert.True(t, IsConflict(err))

	stored, err := env.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Candidate("m1").IsAccepted)
	assert.True(t, *stored.Candidate("m1").IsAccepted)
}

func TestRecordCandidateResponseValidation(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "", true, "")
	assert.True(t, IsValidation(err), "missing manager id")

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", false, "")
	assert.True(t, IsValidation(err), "decline without a reason")

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "stranger", true, "")
	assert.True(t, IsNotFound(err), "manager not on the candidate list")
}

func TestRecordCandidateResponseAfterCancellation(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, env.reservations.UpdateStatus(ctx, res.ID, models.ReservationPending, models.ReservationCancelled))

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	assert.True(t, IsConflict(err))

	// The candidate entry stays untouched.
	stored, err := env.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Candidate("m1").IsAccepted)
}

func TestLastDeclineFailsRequestAndSchedulesRetry(t *testing.T) {
	env := newTestEnv(
		testManager("m1", "cleaning"),
		testManager("m2", "cleaning"),
		testManager("m3", "cleaning"),
	)
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)
	require.Len(t, req.Candidates, 3)

	for i, managerID := range []string{"m1", "m2"} {
		_, err = env.svc.RecordCandidateResponse(ctx, req.ID, managerID, false, "unavailable")
		require.NoError(t, err)

		stored, err := env.svc.GetRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestPending, stored.Status, "request stays open after %d declines", i+1)
	}

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m3", false, "unavailable")
	require.NoError(t, err)

	stored, err := env.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestFailed, stored.Status)
	assert.Equal(t, models.ReasonAllDeclined, stored.StatusReason)
	assert.True(t, stored.Retired)

	failed := env.notifier.byType(models.EventRequestFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, models.ReasonAllDeclined, failed[0].Reason)

	require.Len(t, env.scheduler.calls, 1)
	assert.Equal(t, res.ID, env.scheduler.calls[0].ReservationID)
	assert.Equal(t, 2, env.scheduler.calls[0].Attempt)
}

func TestResponseOnTerminalRequestConflicts(t *testing.T) {
	env := newTestEnv(testManager("m1", "cleaning"), testManager("m2", "cleaning"))
	res := env.addReservation("res-1", "cleaning")
	ctx := context.Background()

	req, err := env.svc.CreateRequest(ctx, res.ID, models.ModeAuto, CreateOptions{})
	require.NoError(t, err)

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)
	_, err = env.svc.ResolveConsumerDecision(ctx, req.ID, "m1", true, "")
	require.NoError(t, err)

	_, err = env.svc.RecordCandidateResponse(ctx, req.ID, "m2", true, "")
	assert.True(t, IsConflict(err))
}
