package resolvers

import (
	"context"
	"errors"
	"fmt"

	businessRepo "bookflow/database/repository/business"
	"bookflow/models"
	"bookflow/services/booking"

	"go.uber.org/zap"
)

// Intent is the structured action the intent extractor classified. The
// extractor handles all natural-language parsing; the resolver only dispatches.
type Intent string

const (
	IntentBook         Intent = "book"
	IntentCancel       Intent = "cancel"
	IntentReschedule   Intent = "reschedule"
	IntentAvailability Intent = "availability"
)

// IntentInput is the unified input for the booking engine, one field set per intent.
type IntentInput struct {
	Intent Intent `json:"intent"`

	Booking    models.BookingRequest    `json:"booking,omitempty"`
	BookingID  string                   `json:"booking_id,omitempty"`
	Reschedule models.ReschedulePayload `json:"reschedule,omitempty"`
	Reason     string                   `json:"reason,omitempty"`

	// Availability queries.
	BusinessID string `json:"business_id,omitempty"`
	ServiceID  string `json:"service_id,omitempty"`
	Date       string `json:"date,omitempty"`
}

// defaultResolver is the instance the conversational layer resolves against.
var defaultResolver *Resolver

// Register installs the wired resolver at startup.
func Register(r *Resolver) { defaultResolver = r }

// Default returns the registered resolver.
func Default() *Resolver { return defaultResolver }

// Resolver holds dependencies for the conversational boundary.
type Resolver struct {
	BookingService booking.BookingService
	Engine         booking.AvailabilityEngine
	BusinessRepo   businessRepo.BusinessRepository
	Logger         *zap.Logger
}

const availabilityListLimit = 10

// Resolve dispatches one structured intent and folds recoverable failures into
// the structured result: validation failures become user-facing messages,
// while config and persistence failures are logged and surfaced as a generic
// retry message without leaking internals. Conflicts are not errors; they
// arrive as structured results with suggestions already attached.
func (r *Resolver) Resolve(ctx context.Context, input IntentInput) (*models.BookingResult, error) {
	var result *models.BookingResult
	var err error

	switch input.Intent {
	case IntentBook:
		result, err = r.BookingService.Book(ctx, input.Booking)
	case IntentCancel:
		result, err = r.BookingService.Cancel(ctx, input.BookingID, input.Reason)
	case IntentReschedule:
		result, err = r.BookingService.Reschedule(ctx, input.BookingID, input.Reschedule)
	case IntentAvailability:
		result, err = r.availability(ctx, input)
	default:
		return nil, fmt.Errorf("unknown intent %q", input.Intent)
	}

	if err != nil {
		return r.foldError(input, err)
	}
	return result, nil
}

func (r *Resolver) availability(ctx context.Context, input IntentInput) (*models.BookingResult, error) {
	biz, err := r.BusinessRepo.GetBusinessByID(ctx, input.BusinessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrNotFound) {
			return nil, booking.NewValidationError(fmt.Sprintf("unknown business %s", input.BusinessID))
		}
		return nil, booking.NewPersistenceError(err)
	}
	svc, err := r.BusinessRepo.GetServiceByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrNotFound) {
			return nil, booking.NewValidationError(fmt.Sprintf("unknown service %s", input.ServiceID))
		}
		return nil, booking.NewPersistenceError(err)
	}

	slots, degraded, err := r.Engine.AvailableSlots(ctx, biz, input.Date, svc.DurationMinutes, availabilityListLimit)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%d open times for %s on %s", len(slots), svc.Name, input.Date)
	if len(slots) == 0 {
		msg = fmt.Sprintf("no open times for %s on %s", svc.Name, input.Date)
	}
	return &models.BookingResult{
		Available:   len(slots) > 0,
		Suggestions: slots,
		Degraded:    degraded,
		Message:     msg,
	}, nil
}

func (r *Resolver) foldError(input IntentInput, err error) (*models.BookingResult, error) {
	var ee *booking.EngineError
	if !errors.As(err, &ee) {
		r.Logger.Error("intent resolution failed", zap.String("intent", string(input.Intent)), zap.Error(err))
		return &models.BookingResult{Message: "something went wrong, please try again"}, nil
	}

	switch ee.Code {
	case booking.CodeValidation:
		return &models.BookingResult{Message: ee.Message}, nil
	case booking.CodeConfig:
		// Fails closed; the admin needs to fix the stored hours or timezone.
		r.Logger.Error("business configuration error", zap.String("intent", string(input.Intent)), zap.Error(err))
		return &models.BookingResult{Message: "this business cannot take bookings right now"}, nil
	default:
		r.Logger.Error("intent resolution failed", zap.String("intent", string(input.Intent)), zap.Error(err))
		return &models.BookingResult{Message: "something went wrong, please try again"}, nil
	}
}
