package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotifyAssignmentCreated  = "assignment.created"
	NotifyWorkStarted        = "assignment.started"
	NotifyWorkFinished       = "assignment.finished"
	NotifyWorkApproved       = "assignment.approved"
	NotifyWorkCancelled      = "assignment.cancelled"
	NotifyExtensionRequested = "extension.requested"
	NotifyExtensionResolved  = "extension.resolved"
)

type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Data      datatypes.JSON `json:"data,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
