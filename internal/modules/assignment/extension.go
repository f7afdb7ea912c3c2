package assignment

import (
	"context"
	"errors"
	"strings"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

const minRejectionNotesLen = 10

// RequestExtension files a pending request for extra minutes on a booking
// that is currently in progress. Only the booking's own provider may ask.
func (s *Service) RequestExtension(ctx context.Context, actor Actor, bookingID int64, requestedMinutes int, reason string) (*domain.ExtensionRequest, error) {
	if requestedMinutes <= 0 {
		return nil, ErrValidation
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleProvider && booking.ProviderID != actor.ID {
		return nil, ErrForbidden
	}
	if booking.Status != domain.BookingInProgress {
		return nil, ErrInvalidTransition
	}

	req := &domain.ExtensionRequest{
		BookingID:        bookingID,
		RequestedMinutes: requestedMinutes,
		Status:           domain.ExtensionPending,
		RequesterID:      actor.ID,
		Reason:           reason,
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := r.exts.Create(ctx, req); err != nil {
			return err
		}
		requestID := req.ID
		return r.timeline.Append(ctx, &domain.TimelineEntry{
			IssueID:     booking.IssueID,
			BookingID:   &bookingID,
			Action:      domain.ActionExtensionRequested,
			PerformedBy: actor.ID,
			Notes:       reason,
			Metadata:    mustJSON(map[string]any{"request_id": requestID, "requested_minutes": requestedMinutes}),
			CreatedAt:   s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyExtensionRequested(ctx, booking.IssueID, bookingID, req.ID)
	}
	return req, nil
}

// ApproveExtension grants the extra minutes if the extended tail
// [oldEnd, newEnd) stays conflict-free for the provider on that date. On
// conflict nothing mutates and the request stays pending so the responder
// can retry after the schedule changes. The overlap re-check and both writes
// share one transaction under the provider-day lock.
func (s *Service) ApproveExtension(ctx context.Context, actor Actor, requestID int64, adminNotes string) (*domain.ExtensionRequest, error) {
	if !actor.isStaff() {
		return nil, ErrForbidden
	}

	var out *domain.ExtensionRequest
	err := s.inTx(ctx, func(r txRepos) error {
		req, err := r.exts.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.Status != domain.ExtensionPending {
			return ErrExtensionResolved
		}

		booking, err := r.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		newEnd := booking.AssignedEndMin + req.RequestedMinutes
		if newEnd > 24*60 {
			return ErrValidation
		}

		if booking.AssignedEndMin > booking.AssignedStartMin {
			if err := r.bookings.LockProviderDay(ctx, booking.ProviderID, booking.ScheduledDate); err != nil {
				return err
			}
			cnt, err := r.bookings.CountOverlapping(ctx, booking.ProviderID, booking.ScheduledDate, booking.AssignedEndMin, newEnd, booking.ID)
			if err != nil {
				return err
			}
			if cnt > 0 {
				return ErrCapacityConflict
			}
		}

		booking.AssignedEndMin = newEnd
		booking.AllocatedMinutes += req.RequestedMinutes
		if err := r.bookings.Update(ctx, booking); err != nil {
			return err
		}

		now := s.clock.Now()
		req.Status = domain.ExtensionApproved
		req.ResponderID = &actor.ID
		req.AdminNotes = adminNotes
		req.RespondedAt = &now
		if err := r.exts.Update(ctx, req); err != nil {
			return err
		}

		bookingID := booking.ID
		if err := r.timeline.Append(ctx, &domain.TimelineEntry{
			IssueID:     booking.IssueID,
			BookingID:   &bookingID,
			Action:      domain.ActionExtensionApproved,
			PerformedBy: actor.ID,
			Notes:       adminNotes,
			Metadata:    mustJSON(map[string]any{"request_id": req.ID, "granted_minutes": req.RequestedMinutes}),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if booking, err := s.loadBooking(ctx, out.BookingID); err == nil {
			_ = s.notifs.NotifyExtensionResolved(ctx, booking.ProviderID, out.ID, true)
		}
	}
	return out, nil
}

// RejectExtension declines the request. adminNotes is mandatory so the
// provider gets an explanation on record.
func (s *Service) RejectExtension(ctx context.Context, actor Actor, requestID int64, adminNotes string) (*domain.ExtensionRequest, error) {
	if !actor.isStaff() {
		return nil, ErrForbidden
	}
	if len(strings.TrimSpace(adminNotes)) < minRejectionNotesLen {
		return nil, ErrValidation
	}

	var out *domain.ExtensionRequest
	err := s.inTx(ctx, func(r txRepos) error {
		req, err := r.exts.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.Status != domain.ExtensionPending {
			return ErrExtensionResolved
		}

		booking, err := r.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		req.Status = domain.ExtensionRejected
		req.ResponderID = &actor.ID
		req.AdminNotes = adminNotes
		req.RespondedAt = &now
		if err := r.exts.Update(ctx, req); err != nil {
			return err
		}

		bookingID := booking.ID
		if err := r.timeline.Append(ctx, &domain.TimelineEntry{
			IssueID:     booking.IssueID,
			BookingID:   &bookingID,
			Action:      domain.ActionExtensionRejected,
			PerformedBy: actor.ID,
			Notes:       adminNotes,
			Metadata:    mustJSON(map[string]any{"request_id": req.ID}),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if booking, err := s.loadBooking(ctx, out.BookingID); err == nil {
			_ = s.notifs.NotifyExtensionResolved(ctx, booking.ProviderID, out.ID, false)
		}
	}
	return out, nil
}

// ListPendingExtensions is the staff work queue.
func (s *Service) ListPendingExtensions(ctx context.Context, limit, offset int) ([]domain.ExtensionRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.exts.ListPending(ctx, limit, offset)
}

func (s *Service) ListBookingExtensions(ctx context.Context, bookingID int64) ([]domain.ExtensionRequest, error) {
	return s.exts.ListByBooking(ctx, bookingID)
}
