package issue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"fixhub/internal/domain"
	"fixhub/internal/pkg/clock"
	"fixhub/internal/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	issues   IssueRepository
	bookings BookingReader
	timeline TimelineRepository
	clock    clock.Clock
}

func NewService(issues IssueRepository, bookings BookingReader, timeline TimelineRepository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{issues: issues, bookings: bookings, timeline: timeline, clock: clk}
}

var validPriorities = map[domain.IssuePriority]bool{
	domain.PriorityLow:    true,
	domain.PriorityNormal: true,
	domain.PriorityHigh:   true,
	domain.PriorityUrgent: true,
}

func (s *Service) Create(ctx context.Context, tenantID int64, req CreateIssueRequest) (*domain.Issue, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrValidation
	}

	priority := domain.IssuePriority(req.Priority)
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !validPriorities[priority] {
		return nil, ErrValidation
	}

	now := s.clock.Now()
	i := &domain.Issue{
		PublicCode:  uuid.NewString(),
		TenantID:    tenantID,
		Title:       title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      domain.IssueOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fields := validator.Validate(i); fields != nil {
		return nil, ErrValidation
	}
	if err := s.issues.Create(ctx, i); err != nil {
		return nil, err
	}

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:     i.ID,
		PerformedBy: tenantID,
		Action:      domain.ActionCreated,
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}
	return i, nil
}

// Get returns the issue with its bookings and timeline attached. Tenants
// see only their own issues; staff and admins see everything.
func (s *Service) Get(ctx context.Context, actorID int64, role domain.UserRole, id int64) (*IssueDetail, error) {
	i, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canView(actorID, role, i) {
		return nil, ErrForbidden
	}

	bookings, err := s.bookings.GetByIssueID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.timeline.ListByIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	i.Bookings = bookings
	return &IssueDetail{Issue: *i, Timeline: entries}, nil
}

func (s *Service) ListMine(ctx context.Context, tenantID int64, limit, offset int) ([]domain.Issue, error) {
	return s.issues.ListByTenant(ctx, tenantID, clampLimit(limit), offset)
}

func (s *Service) ListByStatus(ctx context.Context, role domain.UserRole, status string, limit, offset int) ([]domain.Issue, error) {
	if role != domain.RoleStaff && role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.issues.ListByStatus(ctx, status, clampLimit(limit), offset)
}

// Cancel closes an issue before any work has been scheduled on it. Issues
// with live bookings are cancelled through the booking lifecycle instead,
// which mirrors the final status back.
func (s *Service) Cancel(ctx context.Context, actorID int64, role domain.UserRole, id int64, reason string) (*domain.Issue, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrValidation
	}

	i, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if i.TenantID != actorID && role != domain.RoleStaff && role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if i.Status != domain.IssueOpen {
		bookings, err := s.bookings.GetByIssueID(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			if !b.Status.IsTerminal() {
				return nil, ErrHasActiveWork
			}
		}
		if i.Status == domain.IssueCancelled || i.Status == domain.IssueCompleted {
			return nil, ErrNotOpen
		}
	}

	if err := s.issues.UpdateStatus(ctx, id, string(domain.IssueCancelled)); err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{"reason": reason})
	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:     id,
		PerformedBy: actorID,
		Action:      domain.ActionCancelled,
		Notes:       reason,
		Metadata:    meta,
		CreatedAt:   s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	i.Status = domain.IssueCancelled
	return i, nil
}

func canView(actorID int64, role domain.UserRole, i *domain.Issue) bool {
	if role == domain.RoleStaff || role == domain.RoleAdmin {
		return true
	}
	return i.TenantID == actorID
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
