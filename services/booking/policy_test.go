package booking

import (
	"testing"
	"time"

	"bookflow/models"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestEffectiveSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings models.BookingSettings
		want     EffectivePolicy
	}{
		{
			name:     "all absent falls back to defaults",
			settings: models.BookingSettings{},
			want:     EffectivePolicy{BufferMinutes: 15, MaxAdvanceDays: 90, SameDayAllowed: true},
		},
		{
			name: "configured values win",
			settings: models.BookingSettings{
				BufferMinutes:  intPtr(0),
				MaxAdvanceDays: intPtr(30),
				SameDayAllowed: boolPtr(false),
			},
			want: EffectivePolicy{BufferMinutes: 0, MaxAdvanceDays: 30, SameDayAllowed: false},
		},
		{
			name:     "partial config keeps remaining defaults",
			settings: models.BookingSettings{BufferMinutes: intPtr(5)},
			want:     EffectivePolicy{BufferMinutes: 5, MaxAdvanceDays: 90, SameDayAllowed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveSettings(&models.Business{Settings: tt.settings})
			if got != tt.want {
				t.Errorf("EffectiveSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveWindow(t *testing.T) {
	biz := &models.Business{
		ID:       "biz-1",
		Type:     models.BusinessTypeGeneric,
		Timezone: "UTC",
		Hours: map[string]string{
			"monday":  "09:00-17:00",
			"tuesday": "closed",
		},
		HoursOverrides: map[string]string{
			"2026-09-07": "10:00-14:00", // a Monday
		},
	}

	tests := []struct {
		name       string
		date       string
		wantClosed bool
		wantOpen   string
		wantClose  string
	}{
		{
			name:      "weekly hours",
			date:      "2026-09-14", // Monday
			wantOpen:  "2026-09-14T09:00:00Z",
			wantClose: "2026-09-14T17:00:00Z",
		},
		{
			name:      "override beats weekly map",
			date:      "2026-09-07",
			wantOpen:  "2026-09-07T10:00:00Z",
			wantClose: "2026-09-07T14:00:00Z",
		},
		{
			name:       "explicit closed",
			date:       "2026-09-08", // Tuesday
			wantClosed: true,
		},
		{
			name:       "missing weekday means closed",
			date:       "2026-09-13", // Sunday
			wantClosed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ResolveWindow(biz, tt.date)
			if err != nil {
				t.Fatalf("ResolveWindow() error = %v", err)
			}
			if window.Closed != tt.wantClosed {
				t.Fatalf("Closed = %v, want %v", window.Closed, tt.wantClosed)
			}
			if tt.wantClosed {
				return
			}
			if got := window.Open.Format(time.RFC3339); got != tt.wantOpen {
				t.Errorf("Open = %s, want %s", got, tt.wantOpen)
			}
			if got := window.Close.Format(time.RFC3339); got != tt.wantClose {
				t.Errorf("Close = %s, want %s", got, tt.wantClose)
			}
		})
	}
}

func TestResolveWindowAnchorsClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	biz := &models.Business{
		ID:       "biz-ny",
		Timezone: "America/New_York",
		Hours:    map[string]string{"sunday": "09:00-17:00"},
	}

	tests := []struct {
		name string
		date string
	}{
		{"spring forward", "2026-03-08"},
		{"fall back", "2026-11-01"},
		{"ordinary day", "2026-06-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ResolveWindow(biz, tt.date)
			if err != nil {
				t.Fatalf("ResolveWindow() error = %v", err)
			}
			if got := window.Open.In(loc).Format("15:04"); got != "09:00" {
				t.Errorf("Open = %s local, want 09:00", got)
			}
			if got := window.Close.In(loc).Format("15:04"); got != "17:00" {
				t.Errorf("Close = %s local, want 17:00", got)
			}
			if want := tt.date; window.Open.In(loc).Format("2006-01-02") != want {
				t.Errorf("Open fell on %s, want %s", window.Open.In(loc).Format("2006-01-02"), want)
			}
		})
	}
}

func TestResolveWindowDefaultTemplate(t *testing.T) {
	biz := &models.Business{
		ID:       "biz-new",
		Type:     models.BusinessTypeClinic,
		Timezone: "UTC",
	}

	window, err := ResolveWindow(biz, "2026-09-11") // Friday
	if err != nil {
		t.Fatalf("ResolveWindow() error = %v", err)
	}
	if window.Closed {
		t.Fatal("expected clinic template to be open on Friday")
	}
	if got := window.Close.Format("15:04"); got != "13:00" {
		t.Errorf("clinic Friday close = %s, want 13:00", got)
	}
}

func TestResolveWindowErrors(t *testing.T) {
	tests := []struct {
		name       string
		biz        *models.Business
		date       string
		wantConfig bool
	}{
		{
			name: "invalid timezone",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "Mars/Olympus",
				Hours:    map[string]string{"monday": "09:00-17:00"},
			},
			date:       "2026-09-14",
			wantConfig: true,
		},
		{
			name: "missing separator",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "UTC",
				Hours:    map[string]string{"monday": "09:00 to 17:00"},
			},
			date:       "2026-09-14",
			wantConfig: true,
		},
		{
			name: "non-numeric clock",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "UTC",
				Hours:    map[string]string{"monday": "nine-17:00"},
			},
			date:       "2026-09-14",
			wantConfig: true,
		},
		{
			name: "close not after open",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "UTC",
				Hours:    map[string]string{"monday": "17:00-09:00"},
			},
			date:       "2026-09-14",
			wantConfig: true,
		},
		{
			name: "hour out of range",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "UTC",
				Hours:    map[string]string{"monday": "09:00-25:00"},
			},
			date:       "2026-09-14",
			wantConfig: true,
		},
		{
			name: "invalid date is a validation error",
			biz: &models.Business{
				ID:       "biz-1",
				Timezone: "UTC",
				Hours:    map[string]string{"monday": "09:00-17:00"},
			},
			date: "not-a-date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWindow(tt.biz, tt.date)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantConfig && !IsConfigError(err) {
				t.Errorf("expected config error, got %v (code %s)", err, ErrCode(err))
			}
			if !tt.wantConfig && !IsValidationError(err) {
				t.Errorf("expected validation error, got %v (code %s)", err, ErrCode(err))
			}
		})
	}
}
