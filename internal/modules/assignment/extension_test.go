package assignment

import (
	"context"
	"fmt"
	"testing"

	"fixhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedBooking assigns a booking and walks it into in_progress, the only
// state that accepts extension requests.
func startedBooking(t *testing.T, env *testEnv, issue *domain.Issue, slot *domain.WeeklySlot, start, end string) *domain.Booking {
	t.Helper()
	b := env.assignExplicit(t, issue, slot, start, end, false)
	started, err := env.svc.StartWork(context.Background(), plumber, b.ID)
	require.NoError(t, err)
	return started
}

func TestRequestExtension(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	ctx := context.Background()

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 60, "pipe corrosion worse than expected")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionPending, req.Status)
	assert.Equal(t, 60, req.RequestedMinutes)
	assert.Equal(t, plumber.ID, req.RequesterID)
	assert.NotZero(t, req.ID)

	assert.Contains(t, env.timelineActions(t, issue.ID), domain.ActionExtensionRequested)
	assert.Contains(t, env.notifs.events, fmt.Sprintf("extension_requested:%d:%d:%d", issue.ID, b.ID, req.ID))
}

func TestRequestExtension_Guards(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	ctx := context.Background()

	assigned := env.assignExplicit(t, issue, slot, "09:00", "10:00", false)

	// Not started yet.
	_, err := env.svc.RequestExtension(ctx, plumber, assigned.ID, 30, "more time")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.svc.StartWork(ctx, plumber, assigned.ID)
	require.NoError(t, err)

	// Someone else's booking.
	_, err = env.svc.RequestExtension(ctx, otherProv, assigned.ID, 30, "more time")
	assert.ErrorIs(t, err, ErrForbidden)

	// Nonsense minutes.
	_, err = env.svc.RequestExtension(ctx, plumber, assigned.ID, 0, "more time")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.RequestExtension(ctx, plumber, 9999, 30, "more time")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveExtension(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	ctx := context.Background()

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 60, "needs a second pass")
	require.NoError(t, err)

	resolved, err := env.svc.ApproveExtension(ctx, staff, req.ID, "go ahead")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionApproved, resolved.Status)
	require.NotNil(t, resolved.ResponderID)
	assert.Equal(t, staff.ID, *resolved.ResponderID)
	require.NotNil(t, resolved.RespondedAt)
	assert.True(t, resolved.RespondedAt.Equal(testNow))

	updated, err := env.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 720, updated.AssignedEndMin)
	assert.Equal(t, 180, updated.AllocatedMinutes)

	assert.Contains(t, env.timelineActions(t, issue.ID), domain.ActionExtensionApproved)
	assert.Contains(t, env.notifs.events, fmt.Sprintf("extension_resolved:%d:%d:true", plumber.ID, req.ID))
}

func TestApproveExtension_ConflictKeepsRequestPending(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	neighborIssue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	ctx := context.Background()

	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	neighbor := env.assignExplicit(t, neighborIssue, slot, "11:00", "12:00", false)

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 60, "grout still curing")
	require.NoError(t, err)

	_, err = env.svc.ApproveExtension(ctx, staff, req.ID, "extending")
	assert.ErrorIs(t, err, ErrCapacityConflict)

	// Nothing mutated: the booking keeps its range and the request stays
	// pending so staff can retry once the conflict clears.
	unchanged, err := env.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 660, unchanged.AssignedEndMin)
	assert.Equal(t, 120, unchanged.AllocatedMinutes)

	stored, err := env.exts.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionPending, stored.Status)

	// Cancelling the neighbor frees the tail; the retry goes through.
	_, err = env.svc.CancelWork(ctx, staff, neighbor.ID, "tenant not home")
	require.NoError(t, err)

	resolved, err := env.svc.ApproveExtension(ctx, staff, req.ID, "extending")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionApproved, resolved.Status)

	extended, err := env.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 720, extended.AssignedEndMin)
}

func TestApproveExtension_RejectsPastMidnight(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 1320, 1440) // 22:00-24:00
	b := startedBooking(t, env, issue, slot, "22:00", "23:30")
	ctx := context.Background()

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 60, "running late")
	require.NoError(t, err)

	_, err = env.svc.ApproveExtension(ctx, staff, req.ID, "ok")
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := env.exts.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionPending, stored.Status)
}

func TestApproveExtension_Guards(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	ctx := context.Background()

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 30, "almost there")
	require.NoError(t, err)

	_, err = env.svc.ApproveExtension(ctx, plumber, req.ID, "self-approve")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.ApproveExtension(ctx, staff, 9999, "ok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectExtension(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	ctx := context.Background()

	req, err := env.svc.RequestExtension(ctx, plumber, b.ID, 45, "tile cut twice")
	require.NoError(t, err)

	// The explanation is mandatory and must carry some substance.
	_, err = env.svc.RejectExtension(ctx, staff, req.ID, "no")
	assert.ErrorIs(t, err, ErrValidation)

	resolved, err := env.svc.RejectExtension(ctx, staff, req.ID, "next tenant arrives at 11:30, book a new visit")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionRejected, resolved.Status)
	require.NotNil(t, resolved.ResponderID)
	assert.Equal(t, staff.ID, *resolved.ResponderID)

	// The booking window is untouched.
	unchanged, err := env.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 660, unchanged.AssignedEndMin)

	assert.Contains(t, env.timelineActions(t, issue.ID), domain.ActionExtensionRejected)
	assert.Contains(t, env.notifs.events, fmt.Sprintf("extension_resolved:%d:%d:false", plumber.ID, req.ID))

	// Resolved requests cannot be re-resolved either way.
	_, err = env.svc.ApproveExtension(ctx, staff, req.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrExtensionResolved)
	_, err = env.svc.RejectExtension(ctx, staff, req.ID, "still rejected, see prior note")
	assert.ErrorIs(t, err, ErrExtensionResolved)
}

func TestListPendingExtensions(t *testing.T) {
	env := newTestEnv(t)
	issue := env.seedIssue(t)
	slot := env.seedSlot(t, plumber.ID, 1, 540, 780)
	b := startedBooking(t, env, issue, slot, "09:00", "11:00")
	ctx := context.Background()

	first, err := env.svc.RequestExtension(ctx, plumber, b.ID, 15, "one more fitting")
	require.NoError(t, err)
	second, err := env.svc.RequestExtension(ctx, plumber, b.ID, 30, "and the drain")
	require.NoError(t, err)

	pending, err := env.svc.ListPendingExtensions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	_, err = env.svc.RejectExtension(ctx, staff, first.ID, "bundle both into one request")
	require.NoError(t, err)

	pending, err = env.svc.ListPendingExtensions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	history, err := env.svc.ListBookingExtensions(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
