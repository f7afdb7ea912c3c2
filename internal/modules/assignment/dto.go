package assignment

import (
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/modules/schedule"
)

// AssignRequest drives AssignBooking. The allocator path uses
// NeededMinutes/StartDate; the explicit path uses SlotIDs/Date/StartTime/
// EndTime. SlotIDs present with a start time selects the explicit path.
type AssignRequest struct {
	IssueID    int64 `json:"issue_id" binding:"required"`
	ProviderID int64 `json:"provider_id" binding:"required"`

	NeededMinutes int       `json:"needed_minutes"`
	StartDate     time.Time `json:"-"`
	MaxDays       int       `json:"max_days"`

	SlotIDs   []int64   `json:"slot_ids"`
	Date      time.Time `json:"-"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`

	ProofRequired bool   `json:"proof_required"`
	Notes         string `json:"notes"`
}

type assignRequestBody struct {
	AssignRequest
	StartDateStr string `json:"start_date"`
	DateStr      string `json:"date"`
}

type AssignResult struct {
	Bookings   []domain.Booking           `json:"bookings"`
	Allocation *schedule.AllocationResult `json:"allocation,omitempty"`
}

type FinishRequest struct {
	Notes       string                  `json:"notes"`
	ProofURLs   []string                `json:"proof_urls"`
	Consumables []domain.ConsumableLine `json:"consumables"`
}

type HoldRequest struct {
	Reason string `json:"reason"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ExtensionCreateRequest struct {
	RequestedMinutes int    `json:"requested_minutes" binding:"required,gt=0"`
	Reason           string `json:"reason"`
}

type ExtensionResolveRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// BookingView formats a booking for API responses with clock strings.
type BookingView struct {
	ID               int64      `json:"id"`
	IssueID          int64      `json:"issue_id"`
	ProviderID       int64      `json:"provider_id"`
	ScheduledDate    string     `json:"scheduled_date"`
	ClaimedSlotIDs   []int64    `json:"claimed_slot_ids"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	AllocatedMinutes int        `json:"allocated_minutes"`
	Status           string     `json:"status"`
	ProofRequired    bool       `json:"proof_required"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func bookingView(b domain.Booking) BookingView {
	return BookingView{
		ID:               b.ID,
		IssueID:          b.IssueID,
		ProviderID:       b.ProviderID,
		ScheduledDate:    b.ScheduledDate.Format("2006-01-02"),
		ClaimedSlotIDs:   b.ClaimedSlotIDs,
		StartTime:        schedule.FormatClock(b.AssignedStartMin),
		EndTime:          schedule.FormatClock(b.AssignedEndMin),
		AllocatedMinutes: b.AllocatedMinutes,
		Status:           string(b.Status),
		ProofRequired:    b.ProofRequired,
		StartedAt:        b.StartedAt,
		FinishedAt:       b.FinishedAt,
		CompletedAt:      b.CompletedAt,
	}
}
