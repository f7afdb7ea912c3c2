package domain

import "time"

type ExtensionStatus string

const (
	ExtensionPending  ExtensionStatus = "pending"
	ExtensionApproved ExtensionStatus = "approved"
	ExtensionRejected ExtensionStatus = "rejected"
)

// ExtensionRequest asks for extra minutes on a running booking. Approval
// moves the booking's assigned end, after the same overlap re-check a fresh
// booking would get.
type ExtensionRequest struct {
	ID               int64           `json:"id"`
	BookingID        int64           `json:"booking_id" validate:"required"`
	RequestedMinutes int             `json:"requested_minutes" validate:"required,gt=0"`
	Status           ExtensionStatus `json:"status"`
	RequesterID      int64           `json:"requester_id"`
	ResponderID      *int64          `json:"responder_id,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	AdminNotes       string          `json:"admin_notes,omitempty"`
	RespondedAt      *time.Time      `json:"responded_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
