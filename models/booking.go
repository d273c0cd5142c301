package models

import "time"

// Booking status values. Cancellation is a status change; rows are never
// hard-deleted so the ledger keeps history for conflict audit.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a row in the internal reservation ledger.
type Booking struct {
	ID            string    `bson:"id" json:"id"`
	BusinessID    string    `bson:"business_id" json:"business_id"`
	ServiceID     string    `bson:"service_id" json:"service_id"`
	ServiceName   string    `bson:"service_name" json:"service_name"` // denormalized for display
	CustomerPhone string    `bson:"customer_phone" json:"customer_phone"`
	Start         time.Time `bson:"start" json:"start"` // UTC
	End           time.Time `bson:"end" json:"end"`     // UTC
	PartySize     int       `bson:"party_size,omitempty" json:"party_size,omitempty"`
	Notes         string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Status        string    `bson:"status" json:"status"`

	// CalendarEventRef is set once the booking has been mirrored to the
	// bound external calendar. Empty means not (yet) mirrored.
	CalendarEventRef string `bson:"calendar_event_ref,omitempty" json:"calendar_event_ref,omitempty"`

	// ReminderSent transitions false -> true exactly once, after a confirmed send.
	ReminderSent bool `bson:"reminder_sent" json:"reminder_sent"`

	CancelReason string    `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
