package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	UserID    int64          `gorm:"column:user_id"`
	Type      string         `gorm:"column:type"`
	Title     string         `gorm:"column:title"`
	Body      *string        `gorm:"column:body"`
	Data      datatypes.JSON `gorm:"column:data"`
	ReadAt    *time.Time     `gorm:"column:read_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	var body *string
	if n.Body != "" {
		v := n.Body
		body = &v
	}

	m := notificationModel{
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      body,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	n.ID = m.ID
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	var ms []notificationModel
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Notification, 0, len(ms))
	for _, m := range ms {
		var body string
		if m.Body != nil {
			body = *m.Body
		}
		out = append(out, domain.Notification{
			ID:        m.ID,
			UserID:    m.UserID,
			Type:      m.Type,
			Title:     m.Title,
			Body:      body,
			Data:      m.Data,
			ReadAt:    m.ReadAt,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at).Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&n)
	return n, tx.Error
}

// DeleteReadBefore removes read notifications older than the cutoff.
// Unread rows are kept regardless of age.
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&notificationModel{})
	return tx.RowsAffected, tx.Error
}
