package domain

import (
	"time"

	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingAssigned   BookingStatus = "assigned"
	BookingInProgress BookingStatus = "in_progress"
	BookingOnHold     BookingStatus = "on_hold"
	BookingFinished   BookingStatus = "finished"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Booking is one assignment of a provider to an issue on a concrete date,
// drawing capacity from the weekly slots listed in ClaimedSlotIDs.
// Invariant: for a fixed (provider, date) the [AssignedStartMin,
// AssignedEndMin) ranges of all non-cancelled bookings are pairwise disjoint.
type Booking struct {
	ID               int64          `json:"id"`
	IssueID          int64          `json:"issue_id" validate:"required"`
	ProviderID       int64          `json:"provider_id" validate:"required"`
	ScheduledDate    time.Time      `json:"scheduled_date"`
	ClaimedSlotIDs   []int64        `json:"claimed_slot_ids" gorm:"-"`
	AssignedStartMin int            `json:"assigned_start_min"`
	AssignedEndMin   int            `json:"assigned_end_min"`
	AllocatedMinutes int            `json:"allocated_minutes"`
	Status           BookingStatus  `json:"status"`
	ProofRequired    bool           `json:"proof_required"`
	Notes            string         `json:"notes,omitempty"`
	Consumables      datatypes.JSON `json:"consumables,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	HeldAt      *time.Time `json:"held_at,omitempty"`
	ResumedAt   *time.Time `json:"resumed_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsumableLine records material used while finishing a booking.
type ConsumableLine struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}
