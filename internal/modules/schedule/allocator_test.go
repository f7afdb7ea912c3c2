package schedule

import (
	"context"
	"testing"
	"time"

	"fixhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func noBookings(bookings *MockBookingReader) {
	bookings.On("ListForProviderDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Booking{}, nil)
}

func TestAllocate_SingleDayFit(t *testing.T) {
	slot := testSlot() // Monday 09:00-13:00, 240 min

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{slot}, nil)

	bookings := new(MockBookingReader)
	noBookings(bookings)

	svc := NewService(slots, bookings)
	result, err := svc.Allocate(context.Background(), 10, testDate, 120, AllocateOptions{})

	assert.NoError(t, err)
	assert.Equal(t, 120, result.FulfilledMinutes)
	assert.Equal(t, 0, result.ShortfallMinutes)
	assert.Len(t, result.Claims, 1)
	assert.Equal(t, Claim{SlotID: 1, Date: testDate, StartMin: 540, EndMin: 660, Minutes: 120}, result.Claims[0])
}

func TestAllocate_SpillsAcrossDays(t *testing.T) {
	// 240 minutes available on Monday, the rest must land on Tuesday.
	monday := testSlot()
	tuesday := domain.WeeklySlot{ID: 2, ProviderID: 10, DayOfWeek: 2, StartMin: 540, EndMin: 780, IsActive: true}

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 2).
		Return([]domain.WeeklySlot{tuesday}, nil)

	bookings := new(MockBookingReader)
	noBookings(bookings)

	svc := NewService(slots, bookings)
	result, err := svc.Allocate(context.Background(), 10, testDate, 300, AllocateOptions{})

	assert.NoError(t, err)
	assert.Equal(t, 300, result.FulfilledMinutes)
	assert.Equal(t, 0, result.ShortfallMinutes)
	assert.Len(t, result.Claims, 2)

	assert.Equal(t, 240, result.Claims[0].Minutes)
	assert.Equal(t, testDate, result.Claims[0].Date)

	assert.Equal(t, 60, result.Claims[1].Minutes)
	assert.Equal(t, testDate.AddDate(0, 0, 1), result.Claims[1].Date)
	assert.Equal(t, 540, result.Claims[1].StartMin)

	env := result.Envelope
	assert.NotNil(t, env)
	assert.Equal(t, testDate, env.StartDate)
	assert.Equal(t, 540, env.StartMin)
	assert.Equal(t, testDate.AddDate(0, 0, 1), env.EndDate)
	assert.Equal(t, 600, env.EndMin)
}

func TestAllocate_ReportsShortfall(t *testing.T) {
	monday := testSlot()

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)
	// No availability any other day of the week
	for _, day := range []int{0, 2, 3, 4, 5, 6} {
		slots.On("ListActiveForDay", mock.Anything, int64(10), day).
			Return([]domain.WeeklySlot{}, nil)
	}

	bookings := new(MockBookingReader)
	noBookings(bookings)

	svc := NewService(slots, bookings)
	result, err := svc.Allocate(context.Background(), 10, testDate, 600, AllocateOptions{MaxDays: 7})

	assert.NoError(t, err)
	// Monday twice would exceed MaxDays=7 starting on a Monday: days 0..6
	// cover exactly one Monday.
	assert.Equal(t, 240, result.FulfilledMinutes)
	assert.Equal(t, 360, result.ShortfallMinutes)
	assert.Len(t, result.Claims, 1)
}

func TestAllocate_SkipsFragmentedCapacity(t *testing.T) {
	// Slot has 150 free minutes in two fragments; a 120-minute request
	// cannot be placed contiguously, so the allocator takes nothing from
	// this day rather than splitting the claim.
	monday := testSlot()

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)
	for _, day := range []int{0, 2, 3, 4, 5, 6} {
		slots.On("ListActiveForDay", mock.Anything, int64(10), day).
			Return([]domain.WeeklySlot{}, nil)
	}

	bookings := new(MockBookingReader)
	bookings.On("ListForProviderDate", mock.Anything, int64(10), mock.Anything, int64(0)).
		Return([]domain.Booking{
			booking(1, 1, 600, 660),
			booking(2, 1, 720, 750),
		}, nil)

	svc := NewService(slots, bookings)
	result, err := svc.Allocate(context.Background(), 10, testDate, 120, AllocateOptions{MaxDays: 7})

	assert.NoError(t, err)
	assert.Empty(t, result.Claims)
	assert.Equal(t, 120, result.ShortfallMinutes)
	assert.Nil(t, result.Envelope)
}

func TestAllocate_SkipsFullDays(t *testing.T) {
	monday := testSlot()
	tuesday := domain.WeeklySlot{ID: 2, ProviderID: 10, DayOfWeek: 2, StartMin: 540, EndMin: 780, IsActive: true}

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 2).
		Return([]domain.WeeklySlot{tuesday}, nil)

	bookings := new(MockBookingReader)
	// Monday is fully booked, Tuesday is free
	bookings.On("ListForProviderDate", mock.Anything, int64(10), testDate, int64(0)).
		Return([]domain.Booking{booking(1, 1, 540, 780)}, nil)
	bookings.On("ListForProviderDate", mock.Anything, int64(10), testDate.AddDate(0, 0, 1), int64(0)).
		Return([]domain.Booking{}, nil)

	svc := NewService(slots, bookings)
	result, err := svc.Allocate(context.Background(), 10, testDate, 60, AllocateOptions{})

	assert.NoError(t, err)
	assert.Len(t, result.Claims, 1)
	assert.Equal(t, testDate.AddDate(0, 0, 1), result.Claims[0].Date)
}

func TestAllocate_InvalidRequest(t *testing.T) {
	svc := NewService(new(MockSlotRepository), new(MockBookingReader))
	_, err := svc.Allocate(context.Background(), 10, testDate, 0, AllocateOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAllocate_HorizonCapClampsRequest(t *testing.T) {
	// Only Mondays carry capacity; with the horizon capped at 3 days the
	// walk from Monday never reaches the next one.
	monday := testSlot()

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)
	for _, day := range []int{0, 2, 3, 4, 5, 6} {
		slots.On("ListActiveForDay", mock.Anything, int64(10), day).
			Return([]domain.WeeklySlot{}, nil)
	}

	bookings := new(MockBookingReader)
	noBookings(bookings)

	svc := NewService(slots, bookings).WithHorizon(3)
	// The caller asks for a 30-day walk but the cap wins.
	result, err := svc.Allocate(context.Background(), 10, testDate, 480, AllocateOptions{MaxDays: 30})

	assert.NoError(t, err)
	assert.Equal(t, 240, result.FulfilledMinutes)
	assert.Equal(t, 240, result.ShortfallMinutes)
	assert.Len(t, result.Claims, 1)
	assert.Equal(t, testDate, result.Claims[0].Date)
}

func TestAllocate_RespectsTimeOfDayInput(t *testing.T) {
	// A start date carrying a time of day must behave like midnight.
	monday := testSlot()

	slots := new(MockSlotRepository)
	slots.On("ListActiveForDay", mock.Anything, int64(10), 1).
		Return([]domain.WeeklySlot{monday}, nil)

	bookings := new(MockBookingReader)
	bookings.On("ListForProviderDate", mock.Anything, int64(10), testDate, int64(0)).
		Return([]domain.Booking{}, nil)

	svc := NewService(slots, bookings)
	noisy := time.Date(2026, 9, 7, 15, 42, 7, 0, time.UTC)
	result, err := svc.Allocate(context.Background(), 10, noisy, 60, AllocateOptions{})

	assert.NoError(t, err)
	assert.Len(t, result.Claims, 1)
	assert.Equal(t, testDate, result.Claims[0].Date)
}
