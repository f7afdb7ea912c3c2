package domain

import "time"

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueAssigned   IssueStatus = "assigned"
	IssueInProgress IssueStatus = "in_progress"
	IssueOnHold     IssueStatus = "on_hold"
	IssueFinished   IssueStatus = "finished"
	IssueCompleted  IssueStatus = "completed"
	IssueCancelled  IssueStatus = "cancelled"
)

type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityNormal IssuePriority = "normal"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

type Issue struct {
	ID          int64         `json:"id"`
	PublicCode  string        `json:"public_code"`
	TenantID    int64         `json:"tenant_id" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Priority    IssuePriority `json:"priority"`
	Status      IssueStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Bookings []Booking `json:"bookings,omitempty"`
}
