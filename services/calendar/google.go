package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookflow/models"

	"golang.org/x/oauth2"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenStore resolves a business's opaque credential handle to a usable OAuth
// token. Token acquisition and refresh happen elsewhere; the engine only reads.
type TokenStore interface {
	Token(ctx context.Context, credentialRef string) (*oauth2.Token, error)
}

// GoogleClient implements Client against the Google Calendar API.
type GoogleClient struct {
	Tokens TokenStore
}

func NewGoogleClient(tokens TokenStore) *GoogleClient {
	return &GoogleClient{Tokens: tokens}
}

// service builds a per-binding calendar service from the stored token.
func (c *GoogleClient) service(ctx context.Context, binding models.CalendarBinding) (*gcalendar.Service, error) {
	tok, err := c.Tokens.Token(ctx, binding.CredentialRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar credential %s: %w", binding.CredentialRef, err)
	}
	if !tok.Valid() {
		return nil, ErrAuthExpired
	}
	svc, err := gcalendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}
	return svc, nil
}

func (c *GoogleClient) BusyWindows(ctx context.Context, binding models.CalendarBinding, start, end time.Time) ([]models.BusyWindow, error) {
	svc, err := c.service(ctx, binding)
	if err != nil {
		return nil, err
	}

	req := &gcalendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*gcalendar.FreeBusyRequestItem{{Id: binding.CalendarID}},
	}
	resp, err := svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "freebusy query failed")
	}

	cal, ok := resp.Calendars[binding.CalendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", binding.CalendarID)
	}
	windows := make([]models.BusyWindow, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		ws, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("bad busy period start %q: %w", period.Start, err)
		}
		we, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("bad busy period end %q: %w", period.End, err)
		}
		windows = append(windows, models.BusyWindow{Start: ws, End: we})
	}
	return windows, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, binding models.CalendarBinding, ev Event) (string, error) {
	svc, err := c.service(ctx, binding)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(binding.CalendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", classify(err, "event insert failed")
	}
	return created.Id, nil
}

func (c *GoogleClient) UpdateEvent(ctx context.Context, binding models.CalendarBinding, eventRef string, ev Event) error {
	svc, err := c.service(ctx, binding)
	if err != nil {
		return err
	}
	if _, err := svc.Events.Patch(binding.CalendarID, eventRef, toGoogleEvent(ev)).Context(ctx).Do(); err != nil {
		return classify(err, "event patch failed")
	}
	return nil
}

func (c *GoogleClient) CancelEvent(ctx context.Context, binding models.CalendarBinding, eventRef string) error {
	svc, err := c.service(ctx, binding)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(binding.CalendarID, eventRef).Context(ctx).Do(); err != nil {
		var gerr *googleapi.Error
		// Already gone counts as cancelled.
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			return nil
		}
		return classify(err, "event delete failed")
	}
	return nil
}

func toGoogleEvent(ev Event) *gcalendar.Event {
	return &gcalendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcalendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcalendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
}

// classify maps Google API auth failures onto ErrAuthExpired so callers can
// degrade around them with errors.Is.
func classify(err error, msg string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%s: %w", msg, ErrAuthExpired)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
