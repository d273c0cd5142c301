package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookflow/models"
)

// Policy defaults applied when a business has not configured a setting.
const (
	DefaultBufferMinutes  = 15
	DefaultMaxAdvanceDays = 90
)

// SlotGranularityMinutes is the fixed stepping used by the slot generator.
const SlotGranularityMinutes = 15

// DayWindow is the resolved open interval for one business day. Closed means
// the business takes no appointments that day.
type DayWindow struct {
	Open   time.Time
	Close  time.Time
	Closed bool
}

// EffectivePolicy is the business's booking policy with defaults filled in.
type EffectivePolicy struct {
	BufferMinutes  int
	MaxAdvanceDays int
	SameDayAllowed bool
}

// defaultHoursByType supplies a weekly template for businesses that have not
// configured hours yet, keyed by business type.
var defaultHoursByType = map[models.BusinessType]map[string]string{
	models.BusinessTypeSalon: {
		"tuesday": "09:00-18:00", "wednesday": "09:00-18:00", "thursday": "09:00-18:00",
		"friday": "09:00-18:00", "saturday": "09:00-16:00",
	},
	models.BusinessTypeClinic: {
		"monday": "08:00-17:00", "tuesday": "08:00-17:00", "wednesday": "08:00-17:00",
		"thursday": "08:00-17:00", "friday": "08:00-13:00",
	},
	models.BusinessTypeRestaurant: {
		"monday": "12:00-22:00", "tuesday": "12:00-22:00", "wednesday": "12:00-22:00",
		"thursday": "12:00-22:00", "friday": "12:00-23:00", "saturday": "12:00-23:00",
		"sunday": "12:00-21:00",
	},
	models.BusinessTypeGeneric: {
		"monday": "09:00-17:00", "tuesday": "09:00-17:00", "wednesday": "09:00-17:00",
		"thursday": "09:00-17:00", "friday": "09:00-17:00",
	},
}

// EffectiveSettings fills policy defaults for absent settings. Defaulting is a
// documented fallback, not an error.
func EffectiveSettings(biz *models.Business) EffectivePolicy {
	policy := EffectivePolicy{
		BufferMinutes:  DefaultBufferMinutes,
		MaxAdvanceDays: DefaultMaxAdvanceDays,
		SameDayAllowed: true,
	}
	if biz.Settings.BufferMinutes != nil {
		policy.BufferMinutes = *biz.Settings.BufferMinutes
	}
	if biz.Settings.MaxAdvanceDays != nil {
		policy.MaxAdvanceDays = *biz.Settings.MaxAdvanceDays
	}
	if biz.Settings.SameDayAllowed != nil {
		policy.SameDayAllowed = *biz.Settings.SameDayAllowed
	}
	return policy
}

// ResolveWindow derives the open window for a business on a date ("2006-01-02").
// Date-specific overrides win over the weekly map; a missing entry means closed.
// Malformed stored hours fail with a config error so the request fails closed
// and an admin can fix the record; callers must never silently default.
func ResolveWindow(biz *models.Business, date string) (DayWindow, error) {
	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		return DayWindow{}, NewConfigError(fmt.Sprintf("business %s has invalid timezone %q", biz.ID, biz.Timezone), err)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return DayWindow{}, NewValidationError(fmt.Sprintf("invalid date %q", date))
	}

	raw, ok := biz.HoursOverrides[date]
	if !ok {
		hours := biz.Hours
		if len(hours) == 0 {
			hours = defaultHoursByType[biz.Type]
		}
		weekday := strings.ToLower(day.Weekday().String())
		raw, ok = hours[weekday]
	}
	if !ok || strings.EqualFold(strings.TrimSpace(raw), "closed") {
		return DayWindow{Closed: true}, nil
	}

	openMin, closeMin, err := parseHoursRange(raw)
	if err != nil {
		return DayWindow{}, NewConfigError(fmt.Sprintf("business %s has malformed hours %q for %s", biz.ID, raw, date), err)
	}

	// Anchor the stored wall-clock values directly in the business timezone.
	// Adding an offset to midnight drifts an hour on DST transition days.
	return DayWindow{
		Open:  time.Date(day.Year(), day.Month(), day.Day(), openMin/60, openMin%60, 0, 0, loc),
		Close: time.Date(day.Year(), day.Month(), day.Day(), closeMin/60, closeMin%60, 0, 0, loc),
	}, nil
}

// parseHoursRange parses "HH:MM-HH:MM" into open/close minutes from midnight.
func parseHoursRange(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("missing separator in %q", raw)
	}
	open, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	close, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if close <= open {
		return 0, 0, fmt.Errorf("close %q is not after open %q", parts[1], parts[0])
	}
	return open, close, nil
}

func parseClock(raw string) (int, error) {
	fields := strings.Split(strings.TrimSpace(raw), ":")
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("non-numeric hour in %q", raw)
	}
	minute, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("non-numeric minute in %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hour*60 + minute, nil
}
