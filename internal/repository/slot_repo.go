package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

type slotModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	ProviderID int64     `gorm:"column:provider_id"`
	DayOfWeek  int       `gorm:"column:day_of_week"`
	StartMin   int       `gorm:"column:start_min"`
	EndMin     int       `gorm:"column:end_min"`
	IsActive   bool      `gorm:"column:is_active"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (slotModel) TableName() string { return "weekly_slots" }

func toDomainSlot(m slotModel) *domain.WeeklySlot {
	return &domain.WeeklySlot{
		ID:         m.ID,
		ProviderID: m.ProviderID,
		DayOfWeek:  m.DayOfWeek,
		StartMin:   m.StartMin,
		EndMin:     m.EndMin,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toSlotModel(s *domain.WeeklySlot) slotModel {
	return slotModel{
		ID:         s.ID,
		ProviderID: s.ProviderID,
		DayOfWeek:  s.DayOfWeek,
		StartMin:   s.StartMin,
		EndMin:     s.EndMin,
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.WeeklySlot) error {
	m := toSlotModel(s)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*s = *toDomainSlot(m)
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.WeeklySlot, error) {
	var m slotModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSlot(m), nil
}

func (r *SlotRepository) ListByProvider(ctx context.Context, providerID int64) ([]domain.WeeklySlot, error) {
	var ms []slotModel
	tx := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("day_of_week, start_min").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.WeeklySlot, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainSlot(m))
	}
	return out, nil
}

// ListActiveForDay returns the provider's active slots matching a day of
// week, ordered by start. This is the allocator's per-day slot set.
func (r *SlotRepository) ListActiveForDay(ctx context.Context, providerID int64, dayOfWeek int) ([]domain.WeeklySlot, error) {
	var ms []slotModel
	tx := r.db.WithContext(ctx).
		Where("provider_id = ? AND day_of_week = ? AND is_active = ?", providerID, dayOfWeek, true).
		Order("start_min").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.WeeklySlot, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainSlot(m))
	}
	return out, nil
}

func (r *SlotRepository) Update(ctx context.Context, s *domain.WeeklySlot) error {
	m := toSlotModel(s)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*s = *toDomainSlot(m)
	return nil
}

// Deactivate is the logical delete: bookings may still reference the slot.
func (r *SlotRepository) Deactivate(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&slotModel{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
