package schedule

import (
	"fmt"
	"time"
)

// ParseClock parses "15:04" into minutes of day.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

type CreateSlotRequest struct {
	ProviderID int64  `json:"provider_id"`
	DayOfWeek  int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
}

type UpdateSlotRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  *bool  `json:"is_active"`
}

type SlotResponse struct {
	ID         int64  `json:"id"`
	ProviderID int64  `json:"provider_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsActive   bool   `json:"is_active"`
}

type CapacityResponse struct {
	SlotID           int64  `json:"slot_id"`
	Date             string `json:"date"`
	TotalMinutes     int    `json:"total_minutes"`
	BookedMinutes    int    `json:"booked_minutes"`
	AvailableMinutes int    `json:"available_minutes"`
}

type NextFitResponse struct {
	Found     bool   `json:"found"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type AllocatePreviewRequest struct {
	ProviderID    int64  `json:"provider_id" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	NeededMinutes int    `json:"needed_minutes" binding:"required,gt=0"`
	MaxDays       int    `json:"max_days"`
}

type ClaimResponse struct {
	SlotID    int64  `json:"slot_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Minutes   int    `json:"minutes"`
}

type AllocatePreviewResponse struct {
	Claims           []ClaimResponse `json:"claims"`
	FulfilledMinutes int             `json:"fulfilled_minutes"`
	ShortfallMinutes int             `json:"shortfall_minutes"`
	Envelope         *EnvelopeView   `json:"envelope,omitempty"`
}

type EnvelopeView struct {
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
}
