package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/modules/schedule"
	"fixhub/internal/pkg/clock"
	"fixhub/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Actor identifies who is performing an operation, for authorization and
// the timeline's performed_by column.
type Actor struct {
	ID   int64
	Role domain.UserRole
}

func (a Actor) isStaff() bool {
	return a.Role == domain.RoleStaff || a.Role == domain.RoleAdmin
}

type Service struct {
	db       *gorm.DB
	bookings *repository.BookingRepository
	issues   *repository.IssueRepository
	exts     *repository.ExtensionRepository
	timeline *repository.TimelineRepository
	proofs   *repository.ProofRepository
	planner  Planner
	notifs   NotificationSender
	clock    clock.Clock
}

func NewService(
	db *gorm.DB,
	bookings *repository.BookingRepository,
	issues *repository.IssueRepository,
	exts *repository.ExtensionRepository,
	timeline *repository.TimelineRepository,
	proofs *repository.ProofRepository,
	planner Planner,
	notifs NotificationSender,
	clk clock.Clock,
) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:       db,
		bookings: bookings,
		issues:   issues,
		exts:     exts,
		timeline: timeline,
		proofs:   proofs,
		planner:  planner,
		notifs:   notifs,
		clock:    clk,
	}
}

// transitionRule ties a lifecycle operation to its allowed source states and
// audit action. Anything outside the table is ErrInvalidTransition.
type transitionRule struct {
	from   []domain.BookingStatus
	to     domain.BookingStatus
	action domain.TimelineAction
}

var (
	ruleStart   = transitionRule{from: []domain.BookingStatus{domain.BookingAssigned}, to: domain.BookingInProgress, action: domain.ActionStarted}
	ruleHold    = transitionRule{from: []domain.BookingStatus{domain.BookingInProgress}, to: domain.BookingOnHold, action: domain.ActionHeld}
	ruleResume  = transitionRule{from: []domain.BookingStatus{domain.BookingOnHold}, to: domain.BookingInProgress, action: domain.ActionResumed}
	ruleFinish  = transitionRule{from: []domain.BookingStatus{domain.BookingInProgress}, to: domain.BookingFinished, action: domain.ActionFinished}
	ruleApprove = transitionRule{from: []domain.BookingStatus{domain.BookingFinished}, to: domain.BookingCompleted, action: domain.ActionApproved}
	ruleCancel  = transitionRule{
		from:   []domain.BookingStatus{domain.BookingAssigned, domain.BookingInProgress, domain.BookingOnHold},
		to:     domain.BookingCancelled,
		action: domain.ActionCancelled,
	}
)

func (r transitionRule) allows(s domain.BookingStatus) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

// AssignBooking commits a provider assignment for an issue. Two paths: the
// allocator path (needed_minutes + start_date) which books every claim it
// finds, and the explicit path (slot ids + date + exact range) for a staff
// pick. Both end in the same locked commit: provider-day lock, overlap
// re-check, insert. The check and the write sit in one transaction so a
// concurrent assignment for the same provider/day cannot slip between them.
func (s *Service) AssignBooking(ctx context.Context, actor Actor, req AssignRequest) (*AssignResult, error) {
	if !actor.isStaff() {
		return nil, ErrForbidden
	}

	issue, err := s.issues.GetByID(ctx, req.IssueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if issue.Status == domain.IssueCancelled || issue.Status == domain.IssueCompleted {
		return nil, ErrInvalidTransition
	}

	var result *AssignResult
	if len(req.SlotIDs) > 0 && req.StartTime != "" {
		result, err = s.assignExplicit(ctx, actor, issue, req)
	} else {
		result, err = s.assignAllocated(ctx, actor, issue, req)
	}
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		for _, b := range result.Bookings {
			_ = s.notifs.NotifyAssignmentCreated(ctx, b.ProviderID, issue.ID, b.ID, b.ScheduledDate)
		}
	}
	return result, nil
}

func (s *Service) assignAllocated(ctx context.Context, actor Actor, issue *domain.Issue, req AssignRequest) (*AssignResult, error) {
	if req.NeededMinutes <= 0 || req.StartDate.IsZero() {
		return nil, ErrValidation
	}

	alloc, err := s.planner.Allocate(ctx, req.ProviderID, req.StartDate, req.NeededMinutes, schedule.AllocateOptions{MaxDays: req.MaxDays})
	if err != nil {
		if errors.Is(err, schedule.ErrValidation) {
			return nil, ErrValidation
		}
		return nil, err
	}
	if len(alloc.Claims) == 0 {
		return &AssignResult{Allocation: alloc}, nil
	}

	bookings := make([]domain.Booking, 0, len(alloc.Claims))
	err = s.inTx(ctx, func(r txRepos) error {
		for _, claim := range alloc.Claims {
			b := domain.Booking{
				IssueID:          issue.ID,
				ProviderID:       req.ProviderID,
				ScheduledDate:    claim.Date,
				ClaimedSlotIDs:   []int64{claim.SlotID},
				AssignedStartMin: claim.StartMin,
				AssignedEndMin:   claim.EndMin,
				AllocatedMinutes: claim.Minutes,
				Status:           domain.BookingAssigned,
				ProofRequired:    req.ProofRequired,
				Notes:            req.Notes,
			}
			if err := s.commitBooking(ctx, r, actor, &b); err != nil {
				return err
			}
			bookings = append(bookings, b)
		}
		return s.mirrorIssueStatus(ctx, r, issue.ID)
	})
	if err != nil {
		return nil, err
	}

	return &AssignResult{Bookings: bookings, Allocation: alloc}, nil
}

func (s *Service) assignExplicit(ctx context.Context, actor Actor, issue *domain.Issue, req AssignRequest) (*AssignResult, error) {
	startMin, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return nil, ErrValidation
	}
	endMin, err := schedule.ParseClock(req.EndTime)
	if err != nil || endMin <= startMin {
		return nil, ErrValidation
	}
	if req.Date.IsZero() {
		return nil, ErrValidation
	}
	date := schedule.NormalizeDate(req.Date)

	// The picked range must be backed by the claimed slots: right weekday,
	// inside the union of their windows.
	if err := s.planner.ValidateClaimedWindow(ctx, req.ProviderID, date, req.SlotIDs, startMin, endMin); err != nil {
		switch {
		case errors.Is(err, schedule.ErrValidation):
			return nil, ErrValidation
		case errors.Is(err, schedule.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Cheap conservative check before the locked commit.
	conflict, err := s.planner.HasMultiSlotOverlap(ctx, req.ProviderID, date, req.SlotIDs, 0)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if conflict {
		return nil, ErrCapacityConflict
	}

	b := domain.Booking{
		IssueID:          issue.ID,
		ProviderID:       req.ProviderID,
		ScheduledDate:    date,
		ClaimedSlotIDs:   req.SlotIDs,
		AssignedStartMin: startMin,
		AssignedEndMin:   endMin,
		AllocatedMinutes: endMin - startMin,
		Status:           domain.BookingAssigned,
		ProofRequired:    req.ProofRequired,
		Notes:            req.Notes,
	}

	err = s.inTx(ctx, func(r txRepos) error {
		if err := s.commitBooking(ctx, r, actor, &b); err != nil {
			return err
		}
		return s.mirrorIssueStatus(ctx, r, issue.ID)
	})
	if err != nil {
		return nil, err
	}

	return &AssignResult{Bookings: []domain.Booking{b}}, nil
}

// commitBooking does the locked insert of one booking: provider-day lock,
// authoritative overlap re-check against committed rows, insert, audit.
func (s *Service) commitBooking(ctx context.Context, r txRepos, actor Actor, b *domain.Booking) error {
	if err := r.bookings.LockProviderDay(ctx, b.ProviderID, b.ScheduledDate); err != nil {
		return err
	}

	cnt, err := r.bookings.CountOverlapping(ctx, b.ProviderID, b.ScheduledDate, b.AssignedStartMin, b.AssignedEndMin, 0)
	if err != nil {
		return err
	}
	if cnt > 0 {
		return ErrCapacityConflict
	}

	if err := r.bookings.Create(ctx, b); err != nil {
		if isOverlapConstraintErr(err) {
			return ErrCapacityConflict
		}
		return err
	}

	bookingID := b.ID
	return r.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:     b.IssueID,
		BookingID:   &bookingID,
		Action:      domain.ActionAssigned,
		PerformedBy: actor.ID,
		Metadata: mustJSON(map[string]any{
			"scheduled_date": b.ScheduledDate.Format("2006-01-02"),
			"start":          schedule.FormatClock(b.AssignedStartMin),
			"end":            schedule.FormatClock(b.AssignedEndMin),
		}),
		CreatedAt: s.clock.Now(),
	})
}

// StartWork moves an assigned booking into progress.
func (s *Service) StartWork(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	return s.transition(ctx, actor, bookingID, ruleStart, transitionOpts{
		apply: func(b *domain.Booking, now time.Time) { b.StartedAt = &now },
	})
}

// HoldWork pauses a running booking, optionally recording why.
func (s *Service) HoldWork(ctx context.Context, actor Actor, bookingID int64, reason string) (*domain.Booking, error) {
	return s.transition(ctx, actor, bookingID, ruleHold, transitionOpts{
		notes: reason,
		apply: func(b *domain.Booking, now time.Time) { b.HeldAt = &now },
	})
}

// ResumeWork continues a held booking.
func (s *Service) ResumeWork(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	return s.transition(ctx, actor, bookingID, ruleResume, transitionOpts{
		apply: func(b *domain.Booking, now time.Time) { b.ResumedAt = &now },
	})
}

// FinishWork completes the provider's side. Bookings with proof_required
// reject a finish without at least one proof, and nothing is written on
// rejection. Proof rows commit in the same transaction as the transition.
func (s *Service) FinishWork(ctx context.Context, actor Actor, bookingID int64, req FinishRequest) (*domain.Booking, error) {
	var consumables []byte
	if len(req.Consumables) > 0 {
		consumables = mustJSON(req.Consumables)
	}

	updated, err := s.transition(ctx, actor, bookingID, ruleFinish, transitionOpts{
		notes: req.Notes,
		metadata: map[string]any{
			"proof_count":      len(req.ProofURLs),
			"consumable_count": len(req.Consumables),
		},
		precheck: func(b *domain.Booking) error {
			if b.ProofRequired && len(req.ProofURLs) == 0 {
				return ErrProofRequired
			}
			return nil
		},
		apply: func(b *domain.Booking, now time.Time) {
			b.FinishedAt = &now
			if req.Notes != "" {
				b.Notes = req.Notes
			}
			if consumables != nil {
				b.Consumables = consumables
			}
		},
		after: func(r txRepos, b *domain.Booking, now time.Time) error {
			for _, url := range req.ProofURLs {
				proof := &domain.WorkProof{
					BookingID:  b.ID,
					FileURL:    url,
					UploadedBy: actor.ID,
					CreatedAt:  now,
				}
				if err := r.proofs.Create(ctx, proof); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if issue, err := s.issues.GetByID(ctx, updated.IssueID); err == nil {
			_ = s.notifs.NotifyWorkFinished(ctx, issue.TenantID, issue.ID, bookingID)
		}
	}
	return updated, nil
}

// ApproveWork signs off finished work. Staff only.
func (s *Service) ApproveWork(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	if !actor.isStaff() {
		return nil, ErrForbidden
	}

	updated, err := s.transition(ctx, actor, bookingID, ruleApprove, transitionOpts{
		apply: func(b *domain.Booking, now time.Time) { b.CompletedAt = &now },
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyWorkApproved(ctx, updated.ProviderID, updated.IssueID, bookingID)
	}
	return updated, nil
}

// CancelWork aborts a booking that has not finished. Reason is mandatory.
func (s *Service) CancelWork(ctx context.Context, actor Actor, bookingID int64, reason string) (*domain.Booking, error) {
	if reason == "" {
		return nil, ErrValidation
	}

	updated, err := s.transition(ctx, actor, bookingID, ruleCancel, transitionOpts{
		notes: reason,
		apply: func(b *domain.Booking, now time.Time) {
			b.CancelledAt = &now
			b.CancellationReason = reason
		},
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyWorkCancelled(ctx, updated.ProviderID, updated.IssueID, bookingID, reason)
	}
	return updated, nil
}

type transitionOpts struct {
	notes    string
	metadata map[string]any
	precheck func(b *domain.Booking) error
	apply    func(b *domain.Booking, now time.Time)
	after    func(r txRepos, b *domain.Booking, now time.Time) error
}

// transition runs one lifecycle step atomically: precondition check, status
// and timestamp mutation, timeline append and issue mirror update commit
// together or not at all.
func (s *Service) transition(ctx context.Context, actor Actor, bookingID int64, rule transitionRule, opts transitionOpts) (*domain.Booking, error) {
	var out *domain.Booking
	err := s.inTx(ctx, func(r txRepos) error {
		b, err := r.bookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := s.authorize(actor, rule, b); err != nil {
			return err
		}
		if !rule.allows(b.Status) {
			return ErrInvalidTransition
		}
		if opts.precheck != nil {
			if err := opts.precheck(b); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		opts.apply(b, now)
		b.Status = rule.to
		if err := r.bookings.Update(ctx, b); err != nil {
			return err
		}

		var meta []byte
		if opts.metadata != nil {
			meta = mustJSON(opts.metadata)
		}
		entry := &domain.TimelineEntry{
			IssueID:     b.IssueID,
			BookingID:   &bookingID,
			Action:      rule.action,
			PerformedBy: actor.ID,
			Notes:       opts.notes,
			Metadata:    meta,
			CreatedAt:   now,
		}
		if err := r.timeline.Append(ctx, entry); err != nil {
			return err
		}

		if opts.after != nil {
			if err := opts.after(r, b, now); err != nil {
				return err
			}
		}

		if err := s.mirrorIssueStatus(ctx, r, b.IssueID); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// authorize enforces who may run which transition: providers drive their own
// work, staff approve and may also cancel or repair any booking.
func (s *Service) authorize(actor Actor, rule transitionRule, b *domain.Booking) error {
	if actor.isStaff() {
		return nil
	}
	if actor.Role == domain.RoleProvider && b.ProviderID == actor.ID && rule.action != domain.ActionApproved {
		return nil
	}
	return ErrForbidden
}

// mirrorIssueStatus recomputes the issue's status from its bookings: the
// most advanced state across non-cancelled bookings wins, all-cancelled
// drops the issue back to open.
func (s *Service) mirrorIssueStatus(ctx context.Context, r txRepos, issueID int64) error {
	bookings, err := r.bookings.GetByIssueID(ctx, issueID)
	if err != nil {
		return err
	}
	return r.issues.UpdateStatus(ctx, issueID, string(issueStatusOf(bookings)))
}

var bookingStatusRank = map[domain.BookingStatus]int{
	domain.BookingAssigned:   1,
	domain.BookingInProgress: 2,
	domain.BookingOnHold:     3,
	domain.BookingFinished:   4,
	domain.BookingCompleted:  5,
}

func issueStatusOf(bookings []domain.Booking) domain.IssueStatus {
	if len(bookings) == 0 {
		return domain.IssueOpen
	}

	best := 0
	allCancelled := true
	for _, b := range bookings {
		if b.Status == domain.BookingCancelled {
			continue
		}
		allCancelled = false
		if r := bookingStatusRank[b.Status]; r > best {
			best = r
		}
	}
	if allCancelled {
		return domain.IssueOpen
	}

	switch best {
	case 1:
		return domain.IssueAssigned
	case 2:
		return domain.IssueInProgress
	case 3:
		return domain.IssueOnHold
	case 4:
		return domain.IssueFinished
	case 5:
		return domain.IssueCompleted
	default:
		return domain.IssueOpen
	}
}

// GetBooking loads a booking with its proofs and extension history.
func (s *Service) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.loadBooking(ctx, bookingID)
}

func (s *Service) ListProviderBookings(ctx context.Context, providerID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListForProvider(ctx, providerID, limit, offset)
}

func (s *Service) IssueTimeline(ctx context.Context, issueID int64) ([]domain.TimelineEntry, error) {
	return s.timeline.ListByIssue(ctx, issueID)
}

func (s *Service) loadBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// txRepos bundles transaction-bound repositories for one unit of work.
type txRepos struct {
	bookings *repository.BookingRepository
	issues   *repository.IssueRepository
	exts     *repository.ExtensionRepository
	timeline *repository.TimelineRepository
	proofs   *repository.ProofRepository
}

func (s *Service) inTx(ctx context.Context, fn func(r txRepos) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	r := txRepos{
		bookings: repository.NewBookingRepository(tx),
		issues:   repository.NewIssueRepository(tx),
		exts:     repository.NewExtensionRepository(tx),
		timeline: repository.NewTimelineRepository(tx),
		proofs:   repository.NewProofRepository(tx),
	}
	if err := fn(r); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func isOverlapConstraintErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23P01 is bookings_no_provider_overlap, 23505 the legacy unique
		// index that predates it.
		return pgErr.Code == "23P01" || (pgErr.Code == "23505" && pgErr.ConstraintName == "idx_no_provider_overlap")
	}
	return false
}

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
