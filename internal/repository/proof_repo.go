package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type ProofRepository struct {
	db *gorm.DB
}

func NewProofRepository(db *gorm.DB) *ProofRepository {
	return &ProofRepository{db: db}
}

func (r *ProofRepository) WithTx(tx *gorm.DB) *ProofRepository {
	return &ProofRepository{db: tx}
}

type proofModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	BookingID  int64     `gorm:"column:booking_id"`
	FileURL    string    `gorm:"column:file_url"`
	UploadedBy int64     `gorm:"column:uploaded_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (proofModel) TableName() string { return "work_proofs" }

func (r *ProofRepository) Create(ctx context.Context, p *domain.WorkProof) error {
	m := proofModel{
		BookingID:  p.BookingID,
		FileURL:    p.FileURL,
		UploadedBy: p.UploadedBy,
		CreatedAt:  p.CreatedAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	p.ID = m.ID
	return nil
}

func (r *ProofRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.WorkProof, error) {
	var ms []proofModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.WorkProof, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.WorkProof{
			ID:         m.ID,
			BookingID:  m.BookingID,
			FileURL:    m.FileURL,
			UploadedBy: m.UploadedBy,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
