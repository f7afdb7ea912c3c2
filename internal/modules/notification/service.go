package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/modules/events"
	"fixhub/internal/pkg/clock"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id int64, at time.Time) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type UserReader interface {
	ListByRole(ctx context.Context, role string) ([]domain.User, error)
}

// Pusher delivers an event to a connected user in real time.
type Pusher interface {
	SendToUser(userID int64, event *events.Event)
}

// Service persists notifications and mirrors them to the WebSocket hub.
// Persisting is the source of truth; the push is best effort.
type Service struct {
	notifs NotificationRepository
	users  UserReader
	pusher Pusher
	clock  clock.Clock
}

func NewService(notifs NotificationRepository, users UserReader, pusher Pusher, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{notifs: notifs, users: users, pusher: pusher, clock: clk}
}

func (s *Service) NotifyAssignmentCreated(ctx context.Context, providerID, issueID, bookingID int64, date time.Time) error {
	return s.emit(ctx, providerID, domain.NotifyAssignmentCreated,
		"New assignment",
		fmt.Sprintf("You have been assigned to issue #%d on %s", issueID, date.Format("2006-01-02")),
		map[string]any{"issue_id": issueID, "booking_id": bookingID, "date": date.Format("2006-01-02")},
	)
}

func (s *Service) NotifyWorkFinished(ctx context.Context, tenantID, issueID, bookingID int64) error {
	return s.emit(ctx, tenantID, domain.NotifyWorkFinished,
		"Work finished",
		fmt.Sprintf("Work on your issue #%d is finished and awaits approval", issueID),
		map[string]any{"issue_id": issueID, "booking_id": bookingID},
	)
}

func (s *Service) NotifyWorkApproved(ctx context.Context, providerID, issueID, bookingID int64) error {
	return s.emit(ctx, providerID, domain.NotifyWorkApproved,
		"Work approved",
		fmt.Sprintf("Your work on issue #%d has been approved", issueID),
		map[string]any{"issue_id": issueID, "booking_id": bookingID},
	)
}

func (s *Service) NotifyWorkCancelled(ctx context.Context, providerID, issueID, bookingID int64, reason string) error {
	return s.emit(ctx, providerID, domain.NotifyWorkCancelled,
		"Booking cancelled",
		fmt.Sprintf("Your booking for issue #%d was cancelled: %s", issueID, reason),
		map[string]any{"issue_id": issueID, "booking_id": bookingID, "reason": reason},
	)
}

// NotifyExtensionRequested fans out to every staff user, any of whom can
// resolve the request.
func (s *Service) NotifyExtensionRequested(ctx context.Context, issueID, bookingID, requestID int64) error {
	staff, err := s.users.ListByRole(ctx, string(domain.RoleStaff))
	if err != nil {
		return err
	}
	data := map[string]any{"issue_id": issueID, "booking_id": bookingID, "request_id": requestID}
	for _, u := range staff {
		if err := s.emit(ctx, u.ID, domain.NotifyExtensionRequested,
			"Extension requested",
			fmt.Sprintf("Provider requested more time on issue #%d", issueID),
			data,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) NotifyExtensionResolved(ctx context.Context, providerID, requestID int64, approved bool) error {
	title := "Extension rejected"
	body := "Your extension request was rejected"
	if approved {
		title = "Extension approved"
		body = "Your extension request was approved"
	}
	return s.emit(ctx, providerID, domain.NotifyExtensionResolved, title, body,
		map[string]any{"request_id": requestID, "approved": approved},
	)
}

func (s *Service) emit(ctx context.Context, userID int64, typ, title, body string, data map[string]any) error {
	raw, _ := json.Marshal(data)
	n := &domain.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      raw,
		CreatedAt: s.clock.Now(),
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.SendToUser(userID, &events.Event{Type: typ, Payload: n})
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.notifs.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.notifs.MarkRead(ctx, userID, id, s.clock.Now())
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notifs.CountUnread(ctx, userID)
}

// Prune removes read notifications older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.notifs.DeleteReadBefore(ctx, s.clock.Now().Add(-retention))
}
