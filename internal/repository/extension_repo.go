package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type ExtensionRepository struct {
	db *gorm.DB
}

func NewExtensionRepository(db *gorm.DB) *ExtensionRepository {
	return &ExtensionRepository{db: db}
}

type extensionModel struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	BookingID        int64      `gorm:"column:booking_id"`
	RequestedMinutes int        `gorm:"column:requested_minutes"`
	Status           string     `gorm:"column:status"`
	RequesterID      int64      `gorm:"column:requester_id"`
	ResponderID      *int64     `gorm:"column:responder_id"`
	Reason           *string    `gorm:"column:reason"`
	AdminNotes       *string    `gorm:"column:admin_notes"`
	RespondedAt      *time.Time `gorm:"column:responded_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (extensionModel) TableName() string { return "extension_requests" }

func toDomainExtension(m extensionModel) *domain.ExtensionRequest {
	var reason, notes string
	if m.Reason != nil {
		reason = *m.Reason
	}
	if m.AdminNotes != nil {
		notes = *m.AdminNotes
	}

	return &domain.ExtensionRequest{
		ID:               m.ID,
		BookingID:        m.BookingID,
		RequestedMinutes: m.RequestedMinutes,
		Status:           domain.ExtensionStatus(m.Status),
		RequesterID:      m.RequesterID,
		ResponderID:      m.ResponderID,
		Reason:           reason,
		AdminNotes:       notes,
		RespondedAt:      m.RespondedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toExtensionModel(e *domain.ExtensionRequest) extensionModel {
	var reason, notes *string
	if e.Reason != "" {
		v := e.Reason
		reason = &v
	}
	if e.AdminNotes != "" {
		v := e.AdminNotes
		notes = &v
	}

	return extensionModel{
		ID:               e.ID,
		BookingID:        e.BookingID,
		RequestedMinutes: e.RequestedMinutes,
		Status:           string(e.Status),
		RequesterID:      e.RequesterID,
		ResponderID:      e.ResponderID,
		Reason:           reason,
		AdminNotes:       notes,
		RespondedAt:      e.RespondedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func (r *ExtensionRepository) WithTx(tx *gorm.DB) *ExtensionRepository {
	return &ExtensionRepository{db: tx}
}

func (r *ExtensionRepository) Create(ctx context.Context, e *domain.ExtensionRequest) error {
	m := toExtensionModel(e)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainExtension(m)
	return nil
}

func (r *ExtensionRepository) GetByID(ctx context.Context, id int64) (*domain.ExtensionRequest, error) {
	var m extensionModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainExtension(m), nil
}

func (r *ExtensionRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.ExtensionRequest, error) {
	var ms []extensionModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.ExtensionRequest, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainExtension(m))
	}
	return out, nil
}

func (r *ExtensionRepository) ListPending(ctx context.Context, limit, offset int) ([]domain.ExtensionRequest, error) {
	var ms []extensionModel
	tx := r.db.WithContext(ctx).
		Where("status = ?", string(domain.ExtensionPending)).
		Order("created_at").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.ExtensionRequest, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainExtension(m))
	}
	return out, nil
}

func (r *ExtensionRepository) Update(ctx context.Context, e *domain.ExtensionRequest) error {
	m := toExtensionModel(e)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainExtension(m)
	return nil
}
