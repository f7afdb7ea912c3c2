package repository

import (
	"context"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type IssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

type issueModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	PublicCode  string    `gorm:"column:public_code"`
	TenantID    int64     `gorm:"column:tenant_id"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	Category    *string   `gorm:"column:category"`
	Priority    string    `gorm:"column:priority"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (issueModel) TableName() string { return "issues" }

func toDomainIssue(m issueModel) *domain.Issue {
	var desc, cat string
	if m.Description != nil {
		desc = *m.Description
	}
	if m.Category != nil {
		cat = *m.Category
	}

	return &domain.Issue{
		ID:          m.ID,
		PublicCode:  m.PublicCode,
		TenantID:    m.TenantID,
		Title:       m.Title,
		Description: desc,
		Category:    cat,
		Priority:    domain.IssuePriority(m.Priority),
		Status:      domain.IssueStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toIssueModel(i *domain.Issue) issueModel {
	var desc, cat *string
	if i.Description != "" {
		v := i.Description
		desc = &v
	}
	if i.Category != "" {
		v := i.Category
		cat = &v
	}

	return issueModel{
		ID:          i.ID,
		PublicCode:  i.PublicCode,
		TenantID:    i.TenantID,
		Title:       i.Title,
		Description: desc,
		Category:    cat,
		Priority:    string(i.Priority),
		Status:      string(i.Status),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (r *IssueRepository) Create(ctx context.Context, i *domain.Issue) error {
	m := toIssueModel(i)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*i = *toDomainIssue(m)
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*domain.Issue, error) {
	var m issueModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainIssue(m), nil
}

func (r *IssueRepository) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]domain.Issue, error) {
	var ms []issueModel
	tx := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Issue, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainIssue(m))
	}
	return out, nil
}

func (r *IssueRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Issue, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var ms []issueModel
	tx := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Issue, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainIssue(m))
	}
	return out, nil
}

func (r *IssueRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&issueModel{}).
		Where("id = ?", id).
		Update("status", status).Error
}
