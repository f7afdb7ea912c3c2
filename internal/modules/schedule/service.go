package schedule

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/pkg/validator"

	"gorm.io/gorm"
)

type Service struct {
	slots    SlotRepository
	bookings BookingReader
	maxDays  int
}

func NewService(slots SlotRepository, bookings BookingReader) *Service {
	return &Service{slots: slots, bookings: bookings, maxDays: DefaultMaxDays}
}

// WithHorizon caps the allocator's forward walk at days. Zero or negative
// values keep the default.
func (s *Service) WithHorizon(days int) *Service {
	if days > 0 {
		s.maxDays = days
	}
	return s
}

// SlotCapacity is the capacity picture of one slot window on one date.
// BookedMinutes + AvailableMinutes == TotalMinutes always holds.
type SlotCapacity struct {
	TotalMinutes     int `json:"total_minutes"`
	BookedMinutes    int `json:"booked_minutes"`
	AvailableMinutes int `json:"available_minutes"`
}

// NormalizeDate strips the time-of-day so dates compare by calendar day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetSlotCapacity computes total/booked/available minutes for a slot on a
// date. Bookings claiming the slot are merged before summing so touching
// ranges are not double counted. Pure read, no locking.
func (s *Service) GetSlotCapacity(ctx context.Context, slot domain.WeeklySlot, date time.Time, excludeBookingID int64) (SlotCapacity, error) {
	booked, err := s.bookedIntervals(ctx, slot, date, excludeBookingID)
	if err != nil {
		return SlotCapacity{}, err
	}

	total := slot.WindowMinutes()
	bookedMin := TotalMinutes(booked)
	avail := total - bookedMin
	if avail < 0 {
		avail = 0
	}

	return SlotCapacity{
		TotalMinutes:     total,
		BookedMinutes:    bookedMin,
		AvailableMinutes: avail,
	}, nil
}

// GetSlotCapacityByID resolves the slot first; handlers use this form.
func (s *Service) GetSlotCapacityByID(ctx context.Context, slotID int64, date time.Time, excludeBookingID int64) (SlotCapacity, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return SlotCapacity{}, err
	}
	return s.GetSlotCapacity(ctx, *slot, date, excludeBookingID)
}

// CalculateNextAvailableTime finds the earliest gap in the slot's window on
// the date that can hold neededMinutes contiguously, and returns an interval
// of exactly that length from the gap's start. Returns nil when no single
// gap is large enough; aggregate available minutes do not imply that a
// contiguous placement exists.
func (s *Service) CalculateNextAvailableTime(ctx context.Context, slot domain.WeeklySlot, date time.Time, neededMinutes int, excludeBookingID int64) (*Interval, error) {
	if neededMinutes <= 0 {
		return nil, ErrValidation
	}

	booked, err := s.bookedIntervals(ctx, slot, date, excludeBookingID)
	if err != nil {
		return nil, err
	}

	window := Interval{Start: slot.StartMin, End: slot.EndMin}
	for _, gap := range Gaps(window, booked) {
		if gap.Minutes() >= neededMinutes {
			return &Interval{Start: gap.Start, End: gap.Start + neededMinutes}, nil
		}
	}
	return nil, nil
}

// HasOverlap is the provider-wide double-booking check: true when any
// non-cancelled booking of the provider on the date intersects
// [startMin, endMin), regardless of which slots the bookings claim.
func (s *Service) HasOverlap(ctx context.Context, providerID int64, date time.Time, startMin, endMin int, excludeBookingID int64) (bool, error) {
	if endMin <= startMin {
		return false, ErrValidation
	}

	cnt, err := s.bookings.CountOverlapping(ctx, providerID, NormalizeDate(date), startMin, endMin, excludeBookingID)
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// HasMultiSlotOverlap checks the combined span of the given slots' windows
// against existing bookings. Deliberately conservative: it flags any
// conflict inside the broad span, not just the minutes that will end up
// assigned, so callers can bail out before the gap search.
func (s *Service) HasMultiSlotOverlap(ctx context.Context, providerID int64, date time.Time, slotIDs []int64, excludeBookingID int64) (bool, error) {
	if len(slotIDs) == 0 {
		return false, ErrValidation
	}

	spanStart, spanEnd := 0, 0
	first := true
	for _, id := range slotIDs {
		slot, err := s.loadSlot(ctx, id)
		if err != nil {
			return false, err
		}
		if slot.ProviderID != providerID {
			return false, ErrNotFound
		}
		if first {
			spanStart, spanEnd = slot.StartMin, slot.EndMin
			first = false
			continue
		}
		if slot.StartMin < spanStart {
			spanStart = slot.StartMin
		}
		if slot.EndMin > spanEnd {
			spanEnd = slot.EndMin
		}
	}

	return s.HasOverlap(ctx, providerID, date, spanStart, spanEnd, excludeBookingID)
}

// ValidateClaimedWindow checks that a hand-picked booking range is actually
// backed by the slots it claims: every slot must belong to the provider, be
// active, run on the date's weekday, and [startMin, endMin) must fit inside
// a contiguous stretch of the claimed windows' union.
func (s *Service) ValidateClaimedWindow(ctx context.Context, providerID int64, date time.Time, slotIDs []int64, startMin, endMin int) error {
	if len(slotIDs) == 0 || endMin <= startMin {
		return ErrValidation
	}

	day := int(NormalizeDate(date).Weekday())
	windows := make([]Interval, 0, len(slotIDs))
	for _, id := range slotIDs {
		slot, err := s.loadSlot(ctx, id)
		if err != nil {
			return err
		}
		if slot.ProviderID != providerID {
			return ErrNotFound
		}
		if !slot.IsActive || slot.DayOfWeek != day {
			return ErrValidation
		}
		windows = append(windows, Interval{Start: slot.StartMin, End: slot.EndMin})
	}

	for _, w := range MergeIntervals(windows) {
		if w.Start <= startMin && endMin <= w.End {
			return nil
		}
	}
	return ErrValidation
}

// bookedIntervals gathers the merged, window-clipped ranges of bookings that
// draw capacity from the slot on the date.
func (s *Service) bookedIntervals(ctx context.Context, slot domain.WeeklySlot, date time.Time, excludeBookingID int64) ([]Interval, error) {
	rows, err := s.bookings.ListForProviderDate(ctx, slot.ProviderID, NormalizeDate(date), excludeBookingID)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0, len(rows))
	for _, b := range rows {
		if !claimsSlot(b, slot.ID) {
			continue
		}
		iv := Interval{Start: b.AssignedStartMin, End: b.AssignedEndMin}
		if iv.Start < slot.StartMin {
			iv.Start = slot.StartMin
		}
		if iv.End > slot.EndMin {
			iv.End = slot.EndMin
		}
		if iv.End > iv.Start {
			intervals = append(intervals, iv)
		}
	}
	return MergeIntervals(intervals), nil
}

func claimsSlot(b domain.Booking, slotID int64) bool {
	for _, id := range b.ClaimedSlotIDs {
		if id == slotID {
			return true
		}
	}
	return false
}

func (s *Service) loadSlot(ctx context.Context, id int64) (*domain.WeeklySlot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return slot, nil
}

// CreateSlot registers a weekly availability window for a provider.
func (s *Service) CreateSlot(ctx context.Context, req CreateSlotRequest) (*domain.WeeklySlot, error) {
	startMin, endMin, err := parseSlotTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return nil, ErrValidation
	}

	slot := &domain.WeeklySlot{
		ProviderID: req.ProviderID,
		DayOfWeek:  req.DayOfWeek,
		StartMin:   startMin,
		EndMin:     endMin,
		IsActive:   true,
	}
	if fields := validator.Validate(slot); fields != nil {
		return nil, ErrValidation
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot rewrites the window of an existing slot. ownerID guards against
// a provider editing someone else's template; staff pass 0 to skip the check.
func (s *Service) UpdateSlot(ctx context.Context, slotID, ownerID int64, req UpdateSlotRequest) (*domain.WeeklySlot, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && slot.ProviderID != ownerID {
		return nil, ErrForbidden
	}

	// Either bound may be sent alone, the other keeps its current value.
	if req.StartTime != "" {
		startMin, err := ParseClock(req.StartTime)
		if err != nil {
			return nil, ErrValidation
		}
		slot.StartMin = startMin
	}
	if req.EndTime != "" {
		endMin, err := ParseClock(req.EndTime)
		if err != nil {
			return nil, ErrValidation
		}
		slot.EndMin = endMin
	}
	if slot.StartMin >= slot.EndMin {
		return nil, ErrValidation
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// DeactivateSlot logically removes a slot. Existing bookings keep their
// claims; the slot just stops offering new capacity.
func (s *Service) DeactivateSlot(ctx context.Context, slotID, ownerID int64) error {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if ownerID != 0 && slot.ProviderID != ownerID {
		return ErrForbidden
	}
	return s.slots.Deactivate(ctx, slotID)
}

func (s *Service) ListProviderSlots(ctx context.Context, providerID int64) ([]domain.WeeklySlot, error) {
	return s.slots.ListByProvider(ctx, providerID)
}

func parseSlotTimes(startStr, endStr string) (int, int, error) {
	startMin, err := ParseClock(startStr)
	if err != nil {
		return 0, 0, ErrValidation
	}
	endMin, err := ParseClock(endStr)
	if err != nil {
		return 0, 0, ErrValidation
	}
	if startMin >= endMin {
		return 0, 0, ErrValidation
	}
	return startMin, endMin, nil
}
