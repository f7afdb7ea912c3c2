package repository

import (
	"context"
	"encoding/json"
	"time"

	"fixhub/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) DB() *gorm.DB { return r.db }

// WithTx returns a repository bound to the given transaction.
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

type bookingModel struct {
	ID                 int64          `gorm:"column:id;primaryKey"`
	IssueID            int64          `gorm:"column:issue_id"`
	ProviderID         int64          `gorm:"column:provider_id"`
	ScheduledDate      time.Time      `gorm:"column:scheduled_date"`
	ClaimedSlotIDs     datatypes.JSON `gorm:"column:claimed_slot_ids"`
	AssignedStartMin   int            `gorm:"column:assigned_start_min"`
	AssignedEndMin     int            `gorm:"column:assigned_end_min"`
	AllocatedMinutes   int            `gorm:"column:allocated_minutes"`
	Status             string         `gorm:"column:status"`
	ProofRequired      bool           `gorm:"column:proof_required"`
	Notes              *string        `gorm:"column:notes"`
	Consumables        datatypes.JSON `gorm:"column:consumables"`
	StartedAt          *time.Time     `gorm:"column:started_at"`
	HeldAt             *time.Time     `gorm:"column:held_at"`
	ResumedAt          *time.Time     `gorm:"column:resumed_at"`
	FinishedAt         *time.Time     `gorm:"column:finished_at"`
	CompletedAt        *time.Time     `gorm:"column:completed_at"`
	CancelledAt        *time.Time     `gorm:"column:cancelled_at"`
	CancellationReason *string        `gorm:"column:cancellation_reason"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes, reason string
	if m.Notes != nil {
		notes = *m.Notes
	}
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	var claims []int64
	if len(m.ClaimedSlotIDs) > 0 {
		_ = json.Unmarshal(m.ClaimedSlotIDs, &claims)
	}

	return &domain.Booking{
		ID:                 m.ID,
		IssueID:            m.IssueID,
		ProviderID:         m.ProviderID,
		ScheduledDate:      m.ScheduledDate,
		ClaimedSlotIDs:     claims,
		AssignedStartMin:   m.AssignedStartMin,
		AssignedEndMin:     m.AssignedEndMin,
		AllocatedMinutes:   m.AllocatedMinutes,
		Status:             domain.BookingStatus(m.Status),
		ProofRequired:      m.ProofRequired,
		Notes:              notes,
		Consumables:        m.Consumables,
		StartedAt:          m.StartedAt,
		HeldAt:             m.HeldAt,
		ResumedAt:          m.ResumedAt,
		FinishedAt:         m.FinishedAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		CancellationReason: reason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes, reason *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	claims := datatypes.JSON("[]")
	if len(b.ClaimedSlotIDs) > 0 {
		if raw, err := json.Marshal(b.ClaimedSlotIDs); err == nil {
			claims = raw
		}
	}

	return bookingModel{
		ID:                 b.ID,
		IssueID:            b.IssueID,
		ProviderID:         b.ProviderID,
		ScheduledDate:      b.ScheduledDate,
		ClaimedSlotIDs:     claims,
		AssignedStartMin:   b.AssignedStartMin,
		AssignedEndMin:     b.AssignedEndMin,
		AllocatedMinutes:   b.AllocatedMinutes,
		Status:             string(b.Status),
		ProofRequired:      b.ProofRequired,
		Notes:              notes,
		Consumables:        b.Consumables,
		StartedAt:          b.StartedAt,
		HeldAt:             b.HeldAt,
		ResumedAt:          b.ResumedAt,
		FinishedAt:         b.FinishedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: reason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByIssueID(ctx context.Context, issueID int64) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("scheduled_date, assigned_start_min").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// ListForProviderDate returns all non-cancelled bookings of a provider on a
// date, excluding excludeID when non-zero. Ordered by start.
func (r *BookingRepository) ListForProviderDate(ctx context.Context, providerID int64, date time.Time, excludeID int64) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("provider_id = ? AND scheduled_date = ? AND status <> ?", providerID, date, string(domain.BookingCancelled))
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var ms []bookingModel
	if tx := q.Order("assigned_start_min").Find(&ms); tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) ListForProvider(ctx context.Context, providerID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("scheduled_date DESC, assigned_start_min").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// CountOverlapping counts non-cancelled bookings of the provider on the date
// whose range intersects [startMin, endMin). Half-open interval semantics.
func (r *BookingRepository) CountOverlapping(ctx context.Context, providerID int64, date time.Time, startMin, endMin int, excludeID int64) (int64, error) {
	var cnt int64
	q := `
SELECT COUNT(1)
FROM bookings
WHERE provider_id = ?
  AND scheduled_date = ?
  AND status <> 'cancelled'
  AND assigned_start_min < ?
  AND assigned_end_min > ?
  AND id <> ?
`
	tx := r.db.WithContext(ctx).Raw(q, providerID, date, endMin, startMin, excludeID).Scan(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

// LockProviderDay serializes commits for one provider-day so the overlap
// re-check inside the calling transaction cannot go stale before the write.
// A transaction-scoped advisory lock covers the case with zero existing
// rows, where FOR UPDATE would lock nothing and two concurrent commits
// could both pass the count. SQLite serializes writers on its own, the
// whole call is Postgres-only.
func (r *BookingRepository) LockProviderDay(ctx context.Context, providerID int64, date time.Time) error {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "postgres" {
		return nil
	}

	key := providerID<<16 ^ int64(date.Year())<<9 ^ int64(date.YearDay())
	if err := q.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
		return err
	}

	var ids []int64
	tx := q.Model(&bookingModel{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_id = ? AND scheduled_date = ?", providerID, date).
		Pluck("id", &ids)
	return tx.Error
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}
