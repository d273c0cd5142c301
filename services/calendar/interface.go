package calendar

import (
	"context"
	"errors"
	"time"

	"bookflow/models"
)

// ErrAuthExpired marks a failure the engine treats as transient: the stored
// credential needs a refresh, availability checks degrade around it.
var ErrAuthExpired = errors.New("calendar credentials expired")

// Event is the provider-independent view of a mirrored booking.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Client is the external-calendar collaborator contract.
type Client interface {
	// BusyWindows reports externally occupied intervals intersecting [start, end).
	BusyWindows(ctx context.Context, binding models.CalendarBinding, start, end time.Time) ([]models.BusyWindow, error)
	CreateEvent(ctx context.Context, binding models.CalendarBinding, ev Event) (string, error)
	UpdateEvent(ctx context.Context, binding models.CalendarBinding, eventRef string, ev Event) error
	CancelEvent(ctx context.Context, binding models.CalendarBinding, eventRef string) error
}
