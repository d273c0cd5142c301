package cron

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"

	"go.uber.org/zap"
)

type sweepBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newSweepBookingRepo(seed ...models.Booking) *sweepBookingRepo {
	repo := &sweepBookingRepo{bookings: map[string]*models.Booking{}}
	for i := range seed {
		b := seed[i]
		repo.bookings[b.ID] = &b
	}
	return repo
}

func (r *sweepBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func (r *sweepBookingRepo) ListConfirmedBetween(context.Context, string, time.Time, time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (r *sweepBookingRepo) CreateConfirmed(context.Context, *models.Booking) error { return nil }

func (r *sweepBookingRepo) Reschedule(context.Context, string, time.Time, time.Time) error {
	return nil
}

func (r *sweepBookingRepo) Cancel(context.Context, string, string) error { return nil }

func (r *sweepBookingRepo) SetCalendarEventRef(context.Context, string, string) error { return nil }

func (r *sweepBookingRepo) FindReminderDue(_ context.Context, from, to time.Time) ([]models.Booking, error) {
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

func (r *sweepBookingRepo) MarkReminderSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.ReminderSent {
		return false, nil
	}
	b.ReminderSent = true
	return true, nil
}

func (r *sweepBookingRepo) AcquireDayLock(_ context.Context, businessID, date string) (string, error) {
	return businessID + ":" + date, nil
}

func (r *sweepBookingRepo) ReleaseDayLock(context.Context, string) error { return nil }

type sweepBusinessRepo struct {
	biz *models.Business
}

func (r *sweepBusinessRepo) GetBusinessByID(_ context.Context, id string) (*models.Business, error) {
	if r.biz != nil && r.biz.ID == id {
		return r.biz, nil
	}
	return nil, businessRepo.ErrNotFound
}

func (r *sweepBusinessRepo) GetServiceByID(context.Context, string) (*models.Service, error) {
	return nil, businessRepo.ErrNotFound
}

func (r *sweepBusinessRepo) UpsertBusiness(context.Context, *models.Business) error { return nil }

func (r *sweepBusinessRepo) UpsertService(context.Context, *models.Service) error { return nil }

// recordingSender captures sends; recipients listed in failFor always error.
type recordingSender struct {
	mu      sync.Mutex
	sent    []string
	texts   []string
	failFor map[string]bool
}

func (s *recordingSender) Send(_ context.Context, recipient, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[recipient] {
		return errors.New("gateway rejected message")
	}
	s.sent = append(s.sent, recipient)
	s.texts = append(s.texts, text)
	return nil
}

func dueBooking(id, phone string, startIn time.Duration) models.Booking {
	start := time.Now().UTC().Add(startIn)
	return models.Booking{
		ID:            id,
		BusinessID:    "biz-1",
		ServiceName:   "Haircut",
		CustomerPhone: phone,
		Status:        models.BookingStatusConfirmed,
		Start:         start,
		End:           start.Add(30 * time.Minute),
	}
}

func newTestSweeper(repo *sweepBookingRepo, sender *recordingSender) *Sweeper {
	biz := &models.Business{ID: "biz-1", Timezone: "UTC"}
	// High rate so a unit sweep never sleeps.
	return NewSweeper(repo, &sweepBusinessRepo{biz: biz}, sender, 1000, zap.NewNop())
}

func TestRunSweepSendsDueReminders(t *testing.T) {
	repo := newSweepBookingRepo(
		dueBooking("bk-soon", "+15550000001", 2*time.Hour),
		dueBooking("bk-late", "+15550000002", 48*time.Hour), // outside threshold
	)
	sender := &recordingSender{}
	sweeper := newTestSweeper(repo, sender)

	sent, err := sweeper.RunSweep(context.Background(), 24)
	if err != nil {
		t.Fatalf("RunSweep() error = %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "+15550000001" {
		t.Errorf("sent to %v, want only +15550000001", sender.sent)
	}
	if !strings.Contains(sender.texts[0], "Haircut") || !strings.Contains(sender.texts[0], "Reply CANCEL") {
		t.Errorf("unexpected reminder text %q", sender.texts[0])
	}

	soon, _ := repo.GetByID(context.Background(), "bk-soon")
	if !soon.ReminderSent {
		t.Error("reminder flag not set after successful send")
	}
	late, _ := repo.GetByID(context.Background(), "bk-late")
	if late.ReminderSent {
		t.Error("booking outside the threshold must not be flagged")
	}
}

func TestRunSweepIsIdempotent(t *testing.T) {
	repo := newSweepBookingRepo(dueBooking("bk-1", "+15550000001", 2*time.Hour))
	sender := &recordingSender{}
	sweeper := newTestSweeper(repo, sender)

	if _, err := sweeper.RunSweep(context.Background(), 24); err != nil {
		t.Fatalf("first RunSweep() error = %v", err)
	}
	sent, err := sweeper.RunSweep(context.Background(), 24)
	if err != nil {
		t.Fatalf("second RunSweep() error = %v", err)
	}
	if sent != 0 {
		t.Errorf("second sweep sent %d, want 0", sent)
	}
	if len(sender.sent) != 1 {
		t.Errorf("total sends = %d, want 1", len(sender.sent))
	}
}

func TestRunSweepSendFailureLeavesFlagUnset(t *testing.T) {
	repo := newSweepBookingRepo(
		dueBooking("bk-ok", "+15550000001", 2*time.Hour),
		dueBooking("bk-fail", "+15550000002", 3*time.Hour),
	)
	sender := &recordingSender{failFor: map[string]bool{"+15550000002": true}}
	sweeper := newTestSweeper(repo, sender)

	sent, err := sweeper.RunSweep(context.Background(), 24)
	if err != nil {
		t.Fatalf("RunSweep() error = %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}

	failed, _ := repo.GetByID(context.Background(), "bk-fail")
	if failed.ReminderSent {
		t.Error("failed send must leave the flag unset for the next sweep")
	}

	// Next sweep retries only the failed one.
	sender.failFor = nil
	sent, err = sweeper.RunSweep(context.Background(), 24)
	if err != nil {
		t.Fatalf("retry RunSweep() error = %v", err)
	}
	if sent != 1 {
		t.Errorf("retry sweep sent %d, want 1", sent)
	}
	retried, _ := repo.GetByID(context.Background(), "bk-fail")
	if !retried.ReminderSent {
		t.Error("flag should flip after the retried send succeeds")
	}
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	sweeper := newTestSweeper(newSweepBookingRepo(), &recordingSender{})
	if _, err := sweeper.Start("every ten minutes", 24); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
