package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimelineRepository is append-only: entries are created and listed, never
// updated or deleted.
type TimelineRepository struct {
	db *gorm.DB
}

func NewTimelineRepository(db *gorm.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

func (r *TimelineRepository) WithTx(tx *gorm.DB) *TimelineRepository {
	return &TimelineRepository{db: tx}
}

type timelineModel struct {
	ID          int64          `gorm:"column:id;primaryKey"`
	IssueID     int64          `gorm:"column:issue_id"`
	BookingID   *int64         `gorm:"column:booking_id"`
	Action      string         `gorm:"column:action"`
	PerformedBy int64          `gorm:"column:performed_by"`
	Notes       *string        `gorm:"column:notes"`
	Metadata    datatypes.JSON `gorm:"column:metadata"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (timelineModel) TableName() string { return "timeline_entries" }

func toDomainTimelineEntry(m timelineModel) *domain.TimelineEntry {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}

	return &domain.TimelineEntry{
		ID:          m.ID,
		IssueID:     m.IssueID,
		BookingID:   m.BookingID,
		Action:      domain.TimelineAction(m.Action),
		PerformedBy: m.PerformedBy,
		Notes:       notes,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *TimelineRepository) Append(ctx context.Context, e *domain.TimelineEntry) error {
	var notes *string
	if e.Notes != "" {
		v := e.Notes
		notes = &v
	}

	m := timelineModel{
		IssueID:     e.IssueID,
		BookingID:   e.BookingID,
		Action:      string(e.Action),
		PerformedBy: e.PerformedBy,
		Notes:       notes,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}

	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainTimelineEntry(m)
	return nil
}

func (r *TimelineRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.TimelineEntry, error) {
	var ms []timelineModel
	tx := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("created_at, id").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.TimelineEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainTimelineEntry(m))
	}
	return out, nil
}
