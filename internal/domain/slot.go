package domain

import "time"

// WeeklySlot is a recurring availability window for one provider:
// a day of week plus a [StartMin, EndMin) minutes-of-day range.
// Deactivation is logical, a slot referenced by bookings is never deleted.
type WeeklySlot struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"provider_id" validate:"required"`
	DayOfWeek  int       `json:"day_of_week" validate:"gte=0,lte=6"`
	StartMin   int       `json:"start_min"`
	EndMin     int       `json:"end_min"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WindowMinutes is the slot window length.
func (s WeeklySlot) WindowMinutes() int {
	return s.EndMin - s.StartMin
}
