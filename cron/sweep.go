package cron

import (
	"context"
	"fmt"
	"time"

	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"
	"bookflow/services/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	sendTimeout  = 10 * time.Second
	sendAttempts = 2
)

// Sweeper periodically selects bookings crossing the reminder threshold and
// marks each processed only after a confirmed send. Delivery is at-least-once:
// a send failure leaves the flag false for the next run, and a crash mid-sweep
// just shortens this run.
type Sweeper struct {
	Bookings   bookingRepo.BookingRepository
	Businesses businessRepo.BusinessRepository
	Notifier   notification.Sender
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

func NewSweeper(bookings bookingRepo.BookingRepository, businesses businessRepo.BusinessRepository, notifier notification.Sender, sendsPerSecond float64, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		Bookings:   bookings,
		Businesses: businesses,
		Notifier:   notifier,
		Limiter:    rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		Logger:     logger,
	}
}

// RunSweep processes one pass and returns the number of reminders sent.
// Re-running immediately after a successful pass finds nothing to do.
func (s *Sweeper) RunSweep(ctx context.Context, thresholdHours int) (int, error) {
	now := time.Now().UTC()
	due, err := s.Bookings.FindReminderDue(ctx, now, now.Add(time.Duration(thresholdHours)*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("reminder sweep query failed: %w", err)
	}

	// Timezones resolved once per business per run for message rendering.
	locations := map[string]*time.Location{}

	sent := 0
	for i := range due {
		booking := &due[i]
		if err := s.Limiter.Wait(ctx); err != nil {
			return sent, err
		}

		text := s.renderReminder(ctx, booking, locations)
		if err := s.sendWithRetry(ctx, booking.CustomerPhone, text); err != nil {
			// Flag stays false so the next sweep retries this booking.
			s.Logger.Warn("reminder send failed",
				zap.String("booking_id", booking.ID),
				zap.String("recipient", booking.CustomerPhone),
				zap.Error(err),
			)
			continue
		}

		flipped, err := s.Bookings.MarkReminderSent(ctx, booking.ID)
		if err != nil {
			s.Logger.Error("failed to mark reminder sent",
				zap.String("booking_id", booking.ID),
				zap.Error(err),
			)
			continue
		}
		if flipped {
			sent++
		}
	}

	s.Logger.Info("reminder sweep complete", zap.Int("eligible", len(due)), zap.Int("sent", sent))
	return sent, nil
}

func (s *Sweeper) sendWithRetry(ctx context.Context, recipient, text string) error {
	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		lastErr = s.Notifier.Send(sendCtx, recipient, text)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (s *Sweeper) renderReminder(ctx context.Context, booking *models.Booking, locations map[string]*time.Location) string {
	loc, ok := locations[booking.BusinessID]
	if !ok {
		loc = time.UTC
		if biz, err := s.Businesses.GetBusinessByID(ctx, booking.BusinessID); err == nil {
			if l, err := time.LoadLocation(biz.Timezone); err == nil {
				loc = l
			}
		}
		locations[booking.BusinessID] = loc
	}
	local := booking.Start.In(loc)
	return fmt.Sprintf("Reminder: %s on %s at %s. Reply CANCEL to cancel.",
		booking.ServiceName, local.Format("Mon Jan 2"), local.Format("15:04"))
}

// Start schedules the sweep on the given cron expression and returns the
// running scheduler so the caller can stop it on shutdown.
func (s *Sweeper) Start(schedule string, thresholdHours int) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.RunSweep(context.Background(), thresholdHours); err != nil {
			s.Logger.Error("reminder sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
