package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bookflow/config"
	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"
	"bookflow/services/calendar"
	"bookflow/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitMirrorWorker runs the async calendar-mirror worker in background.
// Mirroring is decoupled from the booking commit: tasks retry with backoff and
// never touch the internal ledger beyond recording the event reference.
func InitMirrorWorker(bookings bookingRepo.BookingRepository, businesses businessRepo.BusinessRepository, cal calendar.Client) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisMirrorQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeMirrorBooking, handleMirrorTask(bookings, businesses, cal))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[MirrorWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MirrorWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MirrorWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleMirrorTask(bookings bookingRepo.BookingRepository, businesses businessRepo.BusinessRepository, cal calendar.Client) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.MirrorPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[MirrorHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		booking, err := bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrNotFound) {
				log.Printf("[MirrorHandler] booking %s gone, dropping task", p.BookingID)
				return nil
			}
			return err
		}
		biz, err := businesses.GetBusinessByID(ctx, p.BusinessID)
		if err != nil {
			if errors.Is(err, businessRepo.ErrNotFound) {
				return nil
			}
			return err
		}
		if biz.Calendar == nil {
			// Binding removed since enqueue; nothing to mirror.
			return nil
		}

		switch p.Action {
		case models.MirrorActionCreate, models.MirrorActionUpdate:
			return mirrorUpsert(ctx, bookings, cal, biz, booking)
		case models.MirrorActionCancel:
			if booking.CalendarEventRef == "" {
				return nil
			}
			return cal.CancelEvent(ctx, *biz.Calendar, booking.CalendarEventRef)
		default:
			log.Printf("[MirrorHandler] ⚠️ Unknown action: %s", p.Action)
			return nil
		}
	}
}

// mirrorUpsert creates or patches the external event to match the ledger row.
// A booking cancelled while the task waited in the queue is cancelled
// externally instead.
func mirrorUpsert(ctx context.Context, bookings bookingRepo.BookingRepository, cal calendar.Client, biz *models.Business, booking *models.Booking) error {
	if booking.Status == models.BookingStatusCancelled {
		if booking.CalendarEventRef != "" {
			return cal.CancelEvent(ctx, *biz.Calendar, booking.CalendarEventRef)
		}
		return nil
	}

	ev := calendar.Event{
		Summary:     booking.ServiceName,
		Description: fmt.Sprintf("Booking %s for %s", booking.ID, booking.CustomerPhone),
		Start:       booking.Start,
		End:         booking.End,
	}

	if booking.CalendarEventRef != "" {
		return cal.UpdateEvent(ctx, *biz.Calendar, booking.CalendarEventRef, ev)
	}
	eventRef, err := cal.CreateEvent(ctx, *biz.Calendar, ev)
	if err != nil {
		return err
	}
	return bookings.SetCalendarEventRef(ctx, booking.ID, eventRef)
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisMirrorQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[MirrorWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
