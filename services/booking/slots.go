package booking

import (
	"context"
	"time"

	"bookflow/models"
)

// AvailableSlots enumerates free candidate intervals for a service duration on
// one day, stepping from the open window at the fixed granularity. Results are
// ordered ascending by start time; limit <= 0 returns the whole day. The scan
// is a pure function of its inputs, so callers can restart it at will.
//
// The returned degraded flag is set when any underlying check ran without the
// external calendar.
func (e *DefaultAvailabilityEngine) AvailableSlots(ctx context.Context, biz *models.Business, date string, durationMinutes, limit int) ([]models.CandidateInterval, bool, error) {
	window, err := ResolveWindow(biz, date)
	if err != nil {
		return nil, false, err
	}
	if window.Closed {
		return nil, false, nil
	}

	step := time.Duration(SlotGranularityMinutes) * time.Minute
	duration := time.Duration(durationMinutes) * time.Minute

	// One busy-window fetch covers the whole scan. An unreachable calendar
	// degrades the entire scan instead of stalling on a timeout per candidate.
	var busy []models.BusyWindow
	degraded := false
	if biz.Calendar != nil && e.Calendar != nil {
		busy, degraded = e.externalBusy(ctx, biz, window.Open, window.Close)
	}

	var slots []models.CandidateInterval

	// No slot may cross the close boundary, even partially.
	for start := window.Open; !start.Add(duration).After(window.Close); start = start.Add(step) {
		candidate := models.NewCandidateInterval(start, durationMinutes)
		result, err := e.checkInternal(ctx, biz, candidate, "")
		if err != nil {
			return nil, degraded, err
		}
		if !result.Available {
			continue
		}
		if overlapsAny(candidate, busy) {
			continue
		}
		slots = append(slots, candidate)
		if limit > 0 && len(slots) >= limit {
			break
		}
	}
	return slots, degraded, nil
}

func overlapsAny(candidate models.CandidateInterval, busy []models.BusyWindow) bool {
	for _, w := range busy {
		if candidate.Overlaps(w.Start, w.End) {
			return true
		}
	}
	return false
}
