package issue

import (
	"context"

	"fixhub/internal/domain"
)

type IssueRepository interface {
	Create(ctx context.Context, i *domain.Issue) error
	GetByID(ctx context.Context, id int64) (*domain.Issue, error)
	ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]domain.Issue, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Issue, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type BookingReader interface {
	GetByIssueID(ctx context.Context, issueID int64) ([]domain.Booking, error)
}

type TimelineRepository interface {
	Append(ctx context.Context, e *domain.TimelineEntry) error
	ListByIssue(ctx context.Context, issueID int64) ([]domain.TimelineEntry, error)
}
