package models

import "time"

// CandidateInterval is an ephemeral interval under evaluation. It is produced
// by the slot generator and consumed by the conflict detector; never persisted.
type CandidateInterval struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// NewCandidateInterval sizes an interval from a start time and duration.
func NewCandidateInterval(start time.Time, durationMinutes int) CandidateInterval {
	return CandidateInterval{
		Start:           start,
		End:             start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
}

// Overlaps reports half-open interval overlap: touching endpoints do not conflict.
func (c CandidateInterval) Overlaps(start, end time.Time) bool {
	return c.Start.Before(end) && c.End.After(start)
}

// BusyWindow is an externally reported occupied interval. It is used only for
// intersection against candidates and is not persisted by the engine.
type BusyWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Availability reasons returned by the conflict detector.
const (
	ReasonOutsideHours  = "outside_hours"
	ReasonAlreadyBooked = "already_booked"
	ReasonCalendarBusy  = "calendar_busy"
)

// AvailabilityResult is the outcome of checking a single candidate interval.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`

	// BusyWindows carries the conflicting intervals when unavailable.
	BusyWindows []BusyWindow `json:"busy_windows,omitempty"`

	// Degraded is set when the external calendar could not be consulted and
	// the check fell back to the internal ledger only.
	Degraded bool   `json:"degraded,omitempty"`
	Warning  string `json:"warning,omitempty"`
}
