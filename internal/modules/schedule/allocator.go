package schedule

import (
	"context"
	"time"
)

// DefaultMaxDays bounds the allocator's forward walk when a provider has
// sparse or no availability.
const DefaultMaxDays = 90

// Claim is one concrete allocation produced by the day walk.
type Claim struct {
	SlotID   int64     `json:"slot_id"`
	Date     time.Time `json:"date"`
	StartMin int       `json:"start_min"`
	EndMin   int       `json:"end_min"`
	Minutes  int       `json:"minutes"`
}

// Envelope is the coarse earliest-start-to-latest-end summary of a claim
// set. It is a display approximation, not the union of the claims: gaps
// between claims are inside the envelope. Consumers that need exactness must
// read the claims themselves.
type Envelope struct {
	StartDate time.Time `json:"start_date"`
	StartMin  int       `json:"start_min"`
	EndDate   time.Time `json:"end_date"`
	EndMin    int       `json:"end_min"`
}

// AllocationResult is a best-effort outcome: a shortfall is a reportable
// fact for the caller, not an error. FulfilledMinutes + ShortfallMinutes
// always equals the requested amount.
type AllocationResult struct {
	Claims           []Claim   `json:"claims"`
	FulfilledMinutes int       `json:"fulfilled_minutes"`
	ShortfallMinutes int       `json:"shortfall_minutes"`
	Envelope         *Envelope `json:"envelope,omitempty"`
}

type AllocateOptions struct {
	MaxDays          int
	ExcludeBookingID int64
}

// Allocate walks forward day by day from startDate, greedily draining each
// active slot's capacity until neededMinutes are claimed or the day cap is
// hit. Per slot it takes min(available, remaining) and only records a claim
// when a single gap can hold that amount; fragmented capacity a gap search
// cannot place is skipped, not split.
func (s *Service) Allocate(ctx context.Context, providerID int64, startDate time.Time, neededMinutes int, opts AllocateOptions) (*AllocationResult, error) {
	if neededMinutes <= 0 {
		return nil, ErrValidation
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 || maxDays > s.maxDays {
		maxDays = s.maxDays
	}

	remaining := neededMinutes
	date := NormalizeDate(startDate)
	var claims []Claim

	for daysProcessed := 0; remaining > 0 && daysProcessed < maxDays; daysProcessed++ {
		slots, err := s.slots.ListActiveForDay(ctx, providerID, int(date.Weekday()))
		if err != nil {
			return nil, err
		}

		for _, slot := range slots {
			capacity, err := s.GetSlotCapacity(ctx, slot, date, opts.ExcludeBookingID)
			if err != nil {
				return nil, err
			}
			if capacity.AvailableMinutes <= 0 {
				continue
			}

			take := capacity.AvailableMinutes
			if remaining < take {
				take = remaining
			}

			gap, err := s.CalculateNextAvailableTime(ctx, slot, date, take, opts.ExcludeBookingID)
			if err != nil {
				return nil, err
			}
			if gap == nil {
				continue
			}

			claims = append(claims, Claim{
				SlotID:   slot.ID,
				Date:     date,
				StartMin: gap.Start,
				EndMin:   gap.End,
				Minutes:  take,
			})
			remaining -= take
			if remaining == 0 {
				break
			}
		}

		date = date.AddDate(0, 0, 1)
	}

	return &AllocationResult{
		Claims:           claims,
		FulfilledMinutes: neededMinutes - remaining,
		ShortfallMinutes: remaining,
		Envelope:         envelopeOf(claims),
	}, nil
}

func envelopeOf(claims []Claim) *Envelope {
	if len(claims) == 0 {
		return nil
	}

	env := &Envelope{
		StartDate: claims[0].Date,
		StartMin:  claims[0].StartMin,
		EndDate:   claims[0].Date,
		EndMin:    claims[0].EndMin,
	}
	for _, c := range claims[1:] {
		if c.Date.Before(env.StartDate) || (c.Date.Equal(env.StartDate) && c.StartMin < env.StartMin) {
			env.StartDate = c.Date
			env.StartMin = c.StartMin
		}
		if c.Date.After(env.EndDate) || (c.Date.Equal(env.EndDate) && c.EndMin > env.EndMin) {
			env.EndDate = c.Date
			env.EndMin = c.EndMin
		}
	}
	return env
}
