package domain

import (
	"time"

	"gorm.io/datatypes"
)

type TimelineAction string

const (
	ActionCreated            TimelineAction = "created"
	ActionAssigned           TimelineAction = "assigned"
	ActionStarted            TimelineAction = "started"
	ActionHeld               TimelineAction = "held"
	ActionResumed            TimelineAction = "resumed"
	ActionFinished           TimelineAction = "finished"
	ActionApproved           TimelineAction = "approved"
	ActionCancelled          TimelineAction = "cancelled"
	ActionExtensionRequested TimelineAction = "extension_requested"
	ActionExtensionApproved  TimelineAction = "extension_approved"
	ActionExtensionRejected  TimelineAction = "extension_rejected"
)

// TimelineEntry is the append-only audit trail of an issue. Entries are
// written inside the same transaction as the state change they record and
// are never edited or deleted afterwards.
type TimelineEntry struct {
	ID          int64          `json:"id"`
	IssueID     int64          `json:"issue_id"`
	BookingID   *int64         `json:"booking_id,omitempty"`
	Action      TimelineAction `json:"action"`
	PerformedBy int64          `json:"performed_by"`
	Notes       string         `json:"notes,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
