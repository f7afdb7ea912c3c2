package assignment

import (
	"context"
	"time"

	"fixhub/internal/modules/schedule"
)

// Planner is the slice of the schedule service the assignment path needs:
// the claimed-window check, the conservative pre-commit span check and the
// greedy allocator.
type Planner interface {
	ValidateClaimedWindow(ctx context.Context, providerID int64, date time.Time, slotIDs []int64, startMin, endMin int) error
	HasMultiSlotOverlap(ctx context.Context, providerID int64, date time.Time, slotIDs []int64, excludeBookingID int64) (bool, error)
	Allocate(ctx context.Context, providerID int64, startDate time.Time, neededMinutes int, opts schedule.AllocateOptions) (*schedule.AllocationResult, error)
}

// NotificationSender pushes lifecycle events to interested users. Delivery
// failures never fail a transition.
type NotificationSender interface {
	NotifyAssignmentCreated(ctx context.Context, providerID, issueID, bookingID int64, date time.Time) error
	NotifyWorkFinished(ctx context.Context, tenantID, issueID, bookingID int64) error
	NotifyWorkApproved(ctx context.Context, providerID, issueID, bookingID int64) error
	NotifyWorkCancelled(ctx context.Context, providerID, issueID, bookingID int64, reason string) error
	NotifyExtensionRequested(ctx context.Context, issueID, bookingID, requestID int64) error
	NotifyExtensionResolved(ctx context.Context, providerID, requestID int64, approved bool) error
}
