package booking

import (
	"context"

	bookingRepo "bookflow/database/repository/booking"
	businessRepo "bookflow/database/repository/business"
	"bookflow/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AvailabilityEngine decides whether candidate intervals are bookable and
// enumerates free slots.
type AvailabilityEngine interface {
	CheckAvailability(ctx context.Context, biz *models.Business, candidate models.CandidateInterval) (models.AvailabilityResult, error)
	CheckAvailabilityExcluding(ctx context.Context, biz *models.Business, candidate models.CandidateInterval, excludeBookingID string) (models.AvailabilityResult, error)
	AvailableSlots(ctx context.Context, biz *models.Business, date string, durationMinutes, limit int) ([]models.CandidateInterval, bool, error)
}

// MirrorEnqueuer hands calendar mirroring off to the out-of-band worker.
type MirrorEnqueuer interface {
	EnqueueMirror(ctx context.Context, payload models.MirrorPayload) error
}

// BookingService is the top-level state machine over booking requests.
type BookingService interface {
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
	Cancel(ctx context.Context, bookingID, reason string) (*models.BookingResult, error)
	Reschedule(ctx context.Context, bookingID string, payload models.ReschedulePayload) (*models.BookingResult, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	BusinessRepo businessRepo.BusinessRepository
	BookingRepo  bookingRepo.BookingRepository
	Engine       AvailabilityEngine
	Mirror       MirrorEnqueuer
	Validate     *validator.Validate
	Logger       *zap.Logger
}
