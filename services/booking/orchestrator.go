package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	suggestionLimit  = 3
	lockAttempts     = 3
	lockRetryBackoff = 150 * time.Millisecond
)

// Book validates a structured request, checks the interval against both
// sources of truth, commits the booking atomically and hands calendar
// mirroring to the out-of-band worker. Validation and conflict outcomes are
// returned as structured results; only config and persistence failures
// surface as errors.
func (s *DefaultBookingService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	if err := s.Validate.Struct(req); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid booking request: %v", err))
	}

	biz, svc, err := s.lookupTargets(ctx, req.BusinessID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	start, err := s.resolveStart(biz, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	candidate := models.NewCandidateInterval(start.UTC(), svc.DurationMinutes)

	result, err := s.Engine.CheckAvailability(ctx, biz, candidate)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return s.unavailableResult(ctx, biz, req.Date, svc.DurationMinutes, result), nil
	}

	booking := &models.Booking{
		ID:            uuid.New().String(),
		BusinessID:    biz.ID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		CustomerPhone: req.CustomerPhone,
		Start:         candidate.Start,
		End:           candidate.End,
		PartySize:     req.PartySize,
		Notes:         req.Notes,
		Status:        models.BookingStatusConfirmed,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := s.commitSerialized(ctx, biz.ID, req.Date, func() error {
		return s.BookingRepo.CreateConfirmed(ctx, booking)
	}); err != nil {
		if errors.Is(err, bookingRepo.ErrOverlap) || errors.Is(err, bookingRepo.ErrLockHeld) {
			// A commit-time race loss is reported exactly like a pre-check conflict.
			raced := models.AvailabilityResult{Available: false, Reason: models.ReasonAlreadyBooked, Degraded: result.Degraded}
			return s.unavailableResult(ctx, biz, req.Date, svc.DurationMinutes, raced), nil
		}
		s.Logger.Error("booking commit failed",
			zap.String("business_id", biz.ID),
			zap.Time("start", booking.Start),
			zap.Time("end", booking.End),
			zap.Error(err),
		)
		return nil, NewPersistenceError(err)
	}

	s.enqueueMirror(ctx, biz, booking, models.MirrorActionCreate)

	return &models.BookingResult{
		Booking:   booking,
		Available: true,
		Degraded:  result.Degraded,
		Message:   fmt.Sprintf("Booked %s for %s at %s.", svc.Name, req.Date, req.Time),
	}, nil
}

// Cancel flips a confirmed booking to cancelled. The row is kept so the
// ledger preserves history for conflict audit.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, reason string) (*models.BookingResult, error) {
	booking, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewValidationError(fmt.Sprintf("unknown booking %s", bookingID))
		}
		return nil, NewPersistenceError(err)
	}
	if booking.Status == models.BookingStatusCancelled {
		return &models.BookingResult{Booking: booking, Message: "booking is already cancelled"}, nil
	}

	if err := s.BookingRepo.Cancel(ctx, bookingID, reason); err != nil {
		s.Logger.Error("booking cancellation failed",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return nil, NewPersistenceError(err)
	}
	booking.Status = models.BookingStatusCancelled
	booking.CancelReason = reason

	if booking.CalendarEventRef != "" {
		if biz, bizErr := s.BusinessRepo.GetBusinessByID(ctx, booking.BusinessID); bizErr == nil {
			s.enqueueMirror(ctx, biz, booking, models.MirrorActionCancel)
		}
	}

	return &models.BookingResult{Booking: booking, Message: "booking cancelled"}, nil
}

// Reschedule re-runs the full availability check against the new interval
// before mutating; the original booking is untouched on failure.
func (s *DefaultBookingService) Reschedule(ctx context.Context, bookingID string, payload models.ReschedulePayload) (*models.BookingResult, error) {
	if err := s.Validate.Struct(payload); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid reschedule request: %v", err))
	}

	booking, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewValidationError(fmt.Sprintf("unknown booking %s", bookingID))
		}
		return nil, NewPersistenceError(err)
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, NewValidationError("only confirmed bookings can be rescheduled")
	}

	biz, err := s.BusinessRepo.GetBusinessByID(ctx, booking.BusinessID)
	if err != nil {
		return nil, NewPersistenceError(err)
	}

	start, err := s.resolveStart(biz, payload.Date, payload.Time)
	if err != nil {
		return nil, err
	}
	durationMinutes := int(booking.End.Sub(booking.Start).Minutes())
	candidate := models.NewCandidateInterval(start.UTC(), durationMinutes)

	result, err := s.Engine.CheckAvailabilityExcluding(ctx, biz, candidate, booking.ID)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return s.unavailableResult(ctx, biz, payload.Date, durationMinutes, result), nil
	}

	if err := s.commitSerialized(ctx, biz.ID, payload.Date, func() error {
		return s.BookingRepo.Reschedule(ctx, booking.ID, candidate.Start, candidate.End)
	}); err != nil {
		if errors.Is(err, bookingRepo.ErrOverlap) || errors.Is(err, bookingRepo.ErrLockHeld) {
			raced := models.AvailabilityResult{Available: false, Reason: models.ReasonAlreadyBooked, Degraded: result.Degraded}
			return s.unavailableResult(ctx, biz, payload.Date, durationMinutes, raced), nil
		}
		s.Logger.Error("booking reschedule failed",
			zap.String("booking_id", booking.ID),
			zap.Time("new_start", candidate.Start),
			zap.Error(err),
		)
		return nil, NewPersistenceError(err)
	}
	booking.Start = candidate.Start
	booking.End = candidate.End

	s.enqueueMirror(ctx, biz, booking, models.MirrorActionUpdate)

	return &models.BookingResult{
		Booking:   booking,
		Available: true,
		Degraded:  result.Degraded,
		Message:   fmt.Sprintf("Rescheduled %s to %s at %s.", booking.ServiceName, payload.Date, payload.Time),
	}, nil
}

func (s *DefaultBookingService) lookupTargets(ctx context.Context, businessID, serviceID string) (*models.Business, *models.Service, error) {
	biz, err := s.BusinessRepo.GetBusinessByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrNotFound) {
			return nil, nil, NewValidationError(fmt.Sprintf("unknown business %s", businessID))
		}
		return nil, nil, NewPersistenceError(err)
	}
	svc, err := s.BusinessRepo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrNotFound) {
			return nil, nil, NewValidationError(fmt.Sprintf("unknown service %s", serviceID))
		}
		return nil, nil, NewPersistenceError(err)
	}
	if svc.BusinessID != biz.ID || !svc.Active {
		return nil, nil, NewValidationError(fmt.Sprintf("service %s is not offered by this business", serviceID))
	}
	return biz, svc, nil
}

// resolveStart anchors the requested date/time in the business timezone and
// applies the future/same-day/advance-window policy checks.
func (s *DefaultBookingService) resolveStart(biz *models.Business, date, clock string) (time.Time, error) {
	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		return time.Time{}, NewConfigError(fmt.Sprintf("business %s has invalid timezone %q", biz.ID, biz.Timezone), err)
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("invalid date/time %q %q", date, clock))
	}

	now := time.Now().In(loc)
	if !start.After(now) {
		return time.Time{}, NewValidationError("requested time is in the past")
	}

	policy := EffectiveSettings(biz)
	if !policy.SameDayAllowed && start.Format("2006-01-02") == now.Format("2006-01-02") {
		return time.Time{}, NewValidationError("same-day bookings are not accepted")
	}
	if start.After(now.AddDate(0, 0, policy.MaxAdvanceDays)) {
		return time.Time{}, NewValidationError(fmt.Sprintf("bookings are accepted at most %d days in advance", policy.MaxAdvanceDays))
	}
	return start, nil
}

// commitSerialized takes the per-business-day advisory lock around a commit so
// concurrent requests serialize across processes. The transactional overlap
// re-check inside the repository remains the hard invariant; the lock narrows
// the race window.
func (s *DefaultBookingService) commitSerialized(ctx context.Context, businessID, date string, commit func() error) error {
	var lockID string
	var err error
	for attempt := 0; attempt < lockAttempts; attempt++ {
		lockID, err = s.BookingRepo.AcquireDayLock(ctx, businessID, date)
		if err == nil {
			break
		}
		if !errors.Is(err, bookingRepo.ErrLockHeld) {
			return err
		}
		time.Sleep(lockRetryBackoff)
	}
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.BookingRepo.ReleaseDayLock(ctx, lockID); releaseErr != nil {
			s.Logger.Warn("failed to release booking day lock", zap.String("lock_id", lockID), zap.Error(releaseErr))
		}
	}()
	return commit()
}

// unavailableResult decorates a conflict with up to three alternative slots.
// Suggestion lookup is best effort and never turns a conflict into an error.
func (s *DefaultBookingService) unavailableResult(ctx context.Context, biz *models.Business, date string, durationMinutes int, result models.AvailabilityResult) *models.BookingResult {
	suggestions, degraded, err := s.Engine.AvailableSlots(ctx, biz, date, durationMinutes, suggestionLimit)
	if err != nil {
		s.Logger.Warn("failed to compute alternative slots",
			zap.String("business_id", biz.ID),
			zap.String("date", date),
			zap.Error(err),
		)
		suggestions = nil
	}
	return &models.BookingResult{
		Available:   false,
		Reason:      result.Reason,
		Suggestions: suggestions,
		Degraded:    result.Degraded || degraded,
		Message:     "requested time is not available",
	}
}

// enqueueMirror schedules the external-calendar mirror task. Mirroring is
// best effort: an enqueue failure is logged and never rolls back the commit.
func (s *DefaultBookingService) enqueueMirror(ctx context.Context, biz *models.Business, booking *models.Booking, action string) {
	if biz.Calendar == nil || s.Mirror == nil {
		return
	}
	payload := models.MirrorPayload{
		BookingID:  booking.ID,
		BusinessID: biz.ID,
		Action:     action,
		EventRef:   booking.CalendarEventRef,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.Mirror.EnqueueMirror(ctx, payload); err != nil {
		s.Logger.Error("failed to enqueue calendar mirror task",
			zap.String("booking_id", booking.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
