package models

import "time"

// BusinessType selects a default weekly-hours template for businesses
// that have not configured their own hours yet.
type BusinessType string

const (
	BusinessTypeSalon      BusinessType = "salon"
	BusinessTypeClinic     BusinessType = "clinic"
	BusinessTypeRestaurant BusinessType = "restaurant"
	BusinessTypeGeneric    BusinessType = "generic"
)

// Business represents a bookable business and its scheduling policy.
type Business struct {
	ID       string       `bson:"id" json:"id"`
	Name     string       `bson:"name" json:"name"`
	Type     BusinessType `bson:"type" json:"type"`
	Timezone string       `bson:"timezone" json:"timezone"` // IANA name, e.g. "America/New_York"

	// Hours maps a lowercase weekday key ("monday".."sunday") to an
	// "HH:MM-HH:MM" window or the literal "closed". A missing key means closed.
	Hours map[string]string `bson:"hours" json:"hours"`

	// HoursOverrides maps a concrete date ("2006-01-02") to the same format
	// and takes precedence over the weekly map for that date.
	HoursOverrides map[string]string `bson:"hours_overrides,omitempty" json:"hours_overrides,omitempty"`

	Settings BookingSettings  `bson:"settings" json:"settings"`
	Calendar *CalendarBinding `bson:"calendar,omitempty" json:"calendar,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// BookingSettings holds per-business booking policy. Nil fields fall back to
// documented defaults (buffer=15, max_advance_days=90, same_day_allowed=true).
type BookingSettings struct {
	BufferMinutes  *int  `bson:"buffer_minutes,omitempty" json:"buffer_minutes,omitempty"`
	MaxAdvanceDays *int  `bson:"max_advance_days,omitempty" json:"max_advance_days,omitempty"`
	SameDayAllowed *bool `bson:"same_day_allowed,omitempty" json:"same_day_allowed,omitempty"`
}

// CalendarBinding links a business to an external calendar. CredentialRef is
// an opaque handle to a stored token; the engine never performs the OAuth
// handshake itself.
type CalendarBinding struct {
	CredentialRef string `bson:"credential_ref" json:"credential_ref"`
	CalendarID    string `bson:"calendar_id" json:"calendar_id"`
}

// Service is a bookable offering. Duration sizes every candidate interval.
type Service struct {
	ID              string `bson:"id" json:"id"`
	BusinessID      string `bson:"business_id" json:"business_id"`
	Name            string `bson:"name" json:"name"`
	DurationMinutes int    `bson:"duration_minutes" json:"duration_minutes"`
	Active          bool   `bson:"active" json:"active"`
}
