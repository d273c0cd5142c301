package booking

import (
	"context"
	"sync"
	"time"

	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"
	"bookflow/services/calendar"
)

// memBookingRepo is an in-memory BookingRepository with optional error
// injection via the *Err fields.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	createErr     error
	rescheduleErr error
	lockErr       error
}

func newMemBookingRepo(seed ...models.Booking) *memBookingRepo {
	repo := &memBookingRepo{bookings: map[string]*models.Booking{}}
	for i := range seed {
		b := seed[i]
		repo.bookings[b.ID] = &b
	}
	return repo
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func (r *memBookingRepo) ListConfirmedBetween(_ context.Context, businessID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.BusinessID == businessID && b.Status == models.BookingStatusConfirmed &&
			b.Start.Before(to) && b.End.After(from) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) CreateConfirmed(_ context.Context, booking *models.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BusinessID == booking.BusinessID && b.Status == models.BookingStatusConfirmed &&
			booking.Start.Before(b.End) && booking.End.After(b.Start) {
			return bookingRepo.ErrOverlap
		}
	}
	copy := *booking
	r.bookings[booking.ID] = &copy
	return nil
}

func (r *memBookingRepo) Reschedule(_ context.Context, id string, newStart, newEnd time.Time) error {
	if r.rescheduleErr != nil {
		return r.rescheduleErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	for _, b := range r.bookings {
		if b.ID != id && b.BusinessID == target.BusinessID && b.Status == models.BookingStatusConfirmed &&
			newStart.Before(b.End) && newEnd.After(b.Start) {
			return bookingRepo.ErrOverlap
		}
	}
	target.Start = newStart
	target.End = newEnd
	return nil
}

func (r *memBookingRepo) Cancel(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.Status = models.BookingStatusCancelled
	b.CancelReason = reason
	return nil
}

func (r *memBookingRepo) SetCalendarEventRef(_ context.Context, id, eventRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.CalendarEventRef = eventRef
	return nil
}

func (r *memBookingRepo) FindReminderDue(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusConfirmed && !b.ReminderSent &&
			!b.Start.Before(from) && b.Start.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) MarkReminderSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.ReminderSent {
		return false, nil
	}
	b.ReminderSent = true
	return true, nil
}

func (r *memBookingRepo) AcquireDayLock(_ context.Context, businessID, date string) (string, error) {
	if r.lockErr != nil {
		return "", r.lockErr
	}
	return businessID + ":" + date, nil
}

func (r *memBookingRepo) ReleaseDayLock(_ context.Context, _ string) error {
	return nil
}

// memBusinessRepo serves fixed businesses and services.
type memBusinessRepo struct {
	businesses map[string]*models.Business
	services   map[string]*models.Service
}

func newMemBusinessRepo(businesses []*models.Business, services []*models.Service) *memBusinessRepo {
	repo := &memBusinessRepo{
		businesses: map[string]*models.Business{},
		services:   map[string]*models.Service{},
	}
	for _, b := range businesses {
		repo.businesses[b.ID] = b
	}
	for _, s := range services {
		repo.services[s.ID] = s
	}
	return repo
}

func (r *memBusinessRepo) GetBusinessByID(_ context.Context, id string) (*models.Business, error) {
	b, ok := r.businesses[id]
	if !ok {
		return nil, businessRepo.ErrNotFound
	}
	return b, nil
}

func (r *memBusinessRepo) GetServiceByID(_ context.Context, id string) (*models.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, businessRepo.ErrNotFound
	}
	return s, nil
}

func (r *memBusinessRepo) UpsertBusiness(_ context.Context, biz *models.Business) error {
	r.businesses[biz.ID] = biz
	return nil
}

func (r *memBusinessRepo) UpsertService(_ context.Context, svc *models.Service) error {
	r.services[svc.ID] = svc
	return nil
}

// fakeCalendar implements the calendar client with func fields.
type fakeCalendar struct {
	busyFunc func(ctx context.Context, binding models.CalendarBinding, start, end time.Time) ([]models.BusyWindow, error)
}

func (f *fakeCalendar) BusyWindows(ctx context.Context, binding models.CalendarBinding, start, end time.Time) ([]models.BusyWindow, error) {
	if f.busyFunc != nil {
		return f.busyFunc(ctx, binding, start, end)
	}
	return nil, nil
}

func (f *fakeCalendar) CreateEvent(context.Context, models.CalendarBinding, calendar.Event) (string, error) {
	return "evt-1", nil
}

func (f *fakeCalendar) UpdateEvent(context.Context, models.CalendarBinding, string, calendar.Event) error {
	return nil
}

func (f *fakeCalendar) CancelEvent(context.Context, models.CalendarBinding, string) error {
	return nil
}

// fakeEnqueuer records mirror payloads instead of touching redis.
type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []models.MirrorPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueMirror(_ context.Context, payload models.MirrorPayload) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}
