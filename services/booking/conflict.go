package booking

import (
	"context"
	"time"

	bookingRepo "bookflow/database/repository/booking"
	"bookflow/models"
	"bookflow/services/calendar"

	"go.uber.org/zap"
)

// externalFetchTimeout bounds the busy-window lookup so a slow calendar
// degrades the check instead of hanging the whole request.
const externalFetchTimeout = 3 * time.Second

// DefaultAvailabilityEngine checks candidate intervals against the internal
// ledger and the bound external calendar, and enumerates free slots.
type DefaultAvailabilityEngine struct {
	Repo     bookingRepo.BookingRepository
	Calendar calendar.Client
	Logger   *zap.Logger
}

// CheckAvailability evaluates a single candidate interval.
func (e *DefaultAvailabilityEngine) CheckAvailability(ctx context.Context, biz *models.Business, candidate models.CandidateInterval) (models.AvailabilityResult, error) {
	return e.CheckAvailabilityExcluding(ctx, biz, candidate, "")
}

// CheckAvailabilityExcluding is CheckAvailability with one internal booking
// ignored; reschedules use it so a booking never conflicts with itself.
//
// Internal conflicts take precedence over external ones: the ledger is
// authoritative and a ledger conflict short-circuits the external fetch.
func (e *DefaultAvailabilityEngine) CheckAvailabilityExcluding(ctx context.Context, biz *models.Business, candidate models.CandidateInterval, excludeBookingID string) (models.AvailabilityResult, error) {
	result, err := e.checkInternal(ctx, biz, candidate, excludeBookingID)
	if err != nil || !result.Available {
		return result, err
	}

	// External calendar, if one is bound. No binding means no external constraint.
	if biz.Calendar != nil && e.Calendar != nil {
		busy, degraded := e.externalBusy(ctx, biz, candidate.Start, candidate.End)
		if degraded {
			return degradedResult(), nil
		}
		for _, w := range busy {
			if candidate.Overlaps(w.Start, w.End) {
				return models.AvailabilityResult{
					Available:   false,
					Reason:      models.ReasonCalendarBusy,
					BusyWindows: []models.BusyWindow{w},
				}, nil
			}
		}
	}

	return models.AvailabilityResult{Available: true}, nil
}

// checkInternal evaluates the candidate against the open window and the
// internal ledger only. Internal conflicts take precedence, so callers only
// consult the external calendar when this passes.
func (e *DefaultAvailabilityEngine) checkInternal(ctx context.Context, biz *models.Business, candidate models.CandidateInterval, excludeBookingID string) (models.AvailabilityResult, error) {
	loc, date := localDate(biz, candidate.Start)

	window, err := ResolveWindow(biz, date)
	if err != nil {
		return models.AvailabilityResult{}, err
	}
	if window.Closed || candidate.Start.Before(window.Open) || candidate.End.After(window.Close) {
		return models.AvailabilityResult{Available: false, Reason: models.ReasonOutsideHours}, nil
	}

	// Internal ledger, scoped to the calendar day.
	dayStart := time.Date(candidate.Start.In(loc).Year(), candidate.Start.In(loc).Month(), candidate.Start.In(loc).Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)
	internal, err := e.Repo.ListConfirmedBetween(ctx, biz.ID, dayStart, dayEnd)
	if err != nil {
		return models.AvailabilityResult{}, NewPersistenceError(err)
	}

	buffer := time.Duration(EffectiveSettings(biz).BufferMinutes) * time.Minute
	for _, b := range internal {
		if b.ID == excludeBookingID {
			continue
		}
		// Buffer inflates existing bookings symmetrically when judging a new
		// candidate; it is never applied between already-confirmed bookings.
		if candidate.Overlaps(b.Start.Add(-buffer), b.End.Add(buffer)) {
			return models.AvailabilityResult{
				Available:   false,
				Reason:      models.ReasonAlreadyBooked,
				BusyWindows: []models.BusyWindow{{Start: b.Start, End: b.End}},
			}, nil
		}
	}

	return models.AvailabilityResult{Available: true}, nil
}

// externalBusy fetches busy windows under the degradation timeout. A failure
// must never silently mark a slot available, so it is reported as degraded for
// the caller to surface.
func (e *DefaultAvailabilityEngine) externalBusy(ctx context.Context, biz *models.Business, start, end time.Time) ([]models.BusyWindow, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, externalFetchTimeout)
	defer cancel()

	busy, err := e.Calendar.BusyWindows(fetchCtx, *biz.Calendar, start, end)
	if err != nil {
		e.Logger.Warn("external calendar unavailable, degrading to internal-only check",
			zap.String("business_id", biz.ID),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err),
		)
		return nil, true
	}
	return busy, false
}

func degradedResult() models.AvailabilityResult {
	return models.AvailabilityResult{
		Available: true,
		Degraded:  true,
		Warning:   "external calendar unreachable; availability verified against internal ledger only",
	}
}

// localDate renders an instant as the business's calendar date. Falls back to
// UTC when the timezone is unloadable; ResolveWindow reports that as a config
// error on its own.
func localDate(biz *models.Business, t time.Time) (*time.Location, string) {
	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return loc, t.In(loc).Format("2006-01-02")
}
