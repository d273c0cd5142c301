package bookingRepo

import (
	"context"
	"errors"
	"time"

	"bookflow/models"
)

var (
	// ErrNotFound is returned when a booking does not exist.
	ErrNotFound = errors.New("booking not found")
	// ErrOverlap is returned when the commit-time overlap check rejects an interval.
	ErrOverlap = errors.New("overlapping confirmed booking")
	// ErrLockHeld is returned when another process holds the day lock.
	ErrLockHeld = errors.New("booking lock already held")
)

// BookingRepository defines the ledger access the engine needs.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)

	// ListConfirmedBetween returns confirmed bookings for a business whose
	// interval intersects [from, to). Queries are scoped to day boundaries,
	// never whole history.
	ListConfirmedBetween(ctx context.Context, businessID string, from, to time.Time) ([]models.Booking, error)

	// CreateConfirmed inserts a confirmed booking inside a transaction that
	// re-checks the strict no-overlap invariant. Returns ErrOverlap if a
	// concurrent commit won the interval.
	CreateConfirmed(ctx context.Context, booking *models.Booking) error

	// Reschedule moves a confirmed booking to a new interval inside the same
	// transactional overlap check, excluding the booking itself. The original
	// row is untouched on failure.
	Reschedule(ctx context.Context, id string, newStart, newEnd time.Time) error

	// Cancel flips status to cancelled and records a reason. Never deletes.
	Cancel(ctx context.Context, id, reason string) error

	SetCalendarEventRef(ctx context.Context, id, eventRef string) error

	// FindReminderDue returns confirmed bookings starting within [from, to)
	// that have not had a reminder sent.
	FindReminderDue(ctx context.Context, from, to time.Time) ([]models.Booking, error)

	// MarkReminderSent flips reminder_sent false -> true. The update is
	// guarded so the flag can only transition once; returns false when the
	// flag was already set.
	MarkReminderSent(ctx context.Context, id string) (bool, error)

	// AcquireDayLock takes a short-lived advisory lock serializing booking
	// commits for one business day across processes. Returns ErrLockHeld if
	// an unexpired lock exists.
	AcquireDayLock(ctx context.Context, businessID, date string) (string, error)
	ReleaseDayLock(ctx context.Context, lockID string) error
}
