package schedule

import (
	"context"
	"time"

	"fixhub/internal/domain"
)

// SlotRepository defines the slot persistence the schedule service consumes.
type SlotRepository interface {
	Create(ctx context.Context, s *domain.WeeklySlot) error
	GetByID(ctx context.Context, id int64) (*domain.WeeklySlot, error)
	ListByProvider(ctx context.Context, providerID int64) ([]domain.WeeklySlot, error)
	ListActiveForDay(ctx context.Context, providerID int64, dayOfWeek int) ([]domain.WeeklySlot, error)
	Update(ctx context.Context, s *domain.WeeklySlot) error
	Deactivate(ctx context.Context, id int64) error
}

// BookingReader is the read-only booking access used for capacity and
// overlap computation. Previews run unlocked and tolerate staleness; the
// commit-time re-check runs through the assignment service's transaction.
type BookingReader interface {
	ListForProviderDate(ctx context.Context, providerID int64, date time.Time, excludeID int64) ([]domain.Booking, error)
	CountOverlapping(ctx context.Context, providerID int64, date time.Time, startMin, endMin int, excludeID int64) (int64, error)
}
