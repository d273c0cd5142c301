package models

import "time"

// BookingRequest is the structured payload the intent extractor emits after
// parsing free text. The engine never parses natural language itself.
type BookingRequest struct {
	BusinessID    string `json:"business_id" validate:"required"`
	ServiceID     string `json:"service_id" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" validate:"required,datetime=15:04"`
	CustomerPhone string `json:"customer_phone" validate:"required,e164"`
	PartySize     int    `json:"party_size,omitempty" validate:"omitempty,gt=0"`
	Notes         string `json:"notes,omitempty"`
}

// BookingResult is the structured outcome the caller renders into a user message.
type BookingResult struct {
	Booking     *Booking            `json:"booking,omitempty"`
	Available   bool                `json:"available"`
	Reason      string              `json:"reason,omitempty"`
	Suggestions []CandidateInterval `json:"suggestions,omitempty"`
	Degraded    bool                `json:"degraded,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// ReschedulePayload carries the new date/time for a reschedule transition.
type ReschedulePayload struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// MirrorPayload is the asynq task body for out-of-band calendar mirroring.
type MirrorPayload struct {
	BookingID  string    `json:"booking_id"`
	BusinessID string    `json:"business_id"`
	Action     string    `json:"action"` // "create", "update" or "cancel"
	EventRef   string    `json:"event_ref,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Mirror actions.
const (
	MirrorActionCreate = "create"
	MirrorActionUpdate = "update"
	MirrorActionCancel = "cancel"
)
