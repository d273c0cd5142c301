// File: bookflow/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookflow/config"
	"bookflow/cron"
	"bookflow/database"
	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/resolvers"
	"bookflow/services/booking"
	"bookflow/services/calendar"
	"bookflow/services/notification"
	"bookflow/services/tasks"
	"bookflow/utils"

	"github.com/go-playground/validator/v10"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient, logger)

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	businesses := businessRepo.NewMongoBusinessRepo()
	if err := bookings.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// External calendar client with a short-TTL busy-window cache in front.
	calendarClient := calendar.NewCachedClient(
		calendar.NewGoogleClient(calendar.NewMongoTokenStore()),
		utils.GetCacheClient(),
		time.Duration(config.AppConfig.BusyCacheTTLSeconds)*time.Second,
		logger,
	)

	engine := &booking.DefaultAvailabilityEngine{
		Repo:     bookings,
		Calendar: calendarClient,
		Logger:   logger,
	}

	mirrorEnqueuer := tasks.NewMirrorEnqueuer()
	defer mirrorEnqueuer.Close()

	bookingService := &booking.DefaultBookingService{
		BusinessRepo: businesses,
		BookingRepo:  bookings,
		Engine:       engine,
		Mirror:       mirrorEnqueuer,
		Validate:     validator.New(),
		Logger:       logger,
	}

	// The conversational layer calls this resolver in-process with the
	// structured intents its extractor produces.
	resolvers.Register(&resolvers.Resolver{
		BookingService: bookingService,
		Engine:         engine,
		BusinessRepo:   businesses,
		Logger:         logger,
	})

	// Out-of-band calendar mirroring.
	cron.InitMirrorWorker(bookings, businesses, calendarClient)

	// Periodic reminder sweep.
	sweeper := cron.NewSweeper(bookings, businesses, notification.NewWebhookSender(),
		config.AppConfig.SweepSendPerSecond, logger)
	scheduler, err := sweeper.Start(config.AppConfig.SweepSchedule, config.AppConfig.ReminderThresholdH)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start reminder sweep: %v", err)
	}

	logger.Sugar().Infof("bookflow worker running (sweep schedule %q)", config.AppConfig.SweepSchedule)

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: worker is shutting down...")

	ctx := scheduler.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		logger.Sugar().Warn("main: sweep did not drain in time")
	}

	logger.Sugar().Info("main: worker stopped gracefully")
}
