package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookflow/database"
	"bookflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	lockColl    *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{
		bookingColl: database.Collection("bookings"),
		lockColl:    database.Collection("booking_locks"),
	}
}

func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// ListConfirmedBetween uses the half-open overlap predicate start < to AND end > from.
func (repo *MongoBookingRepo) ListConfirmedBetween(ctx context.Context, businessID string, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"business_id": businessID,
		"status":      models.BookingStatusConfirmed,
		"start":       bson.M{"$lt": to},
		"end":         bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings for business %s: %w", businessID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) Cancel(ctx context.Context, id, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":        models.BookingStatusCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now().UTC(),
	}}
	res, err := repo.bookingColl.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoBookingRepo) SetCalendarEventRef(ctx context.Context, id, eventRef string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"calendar_event_ref": eventRef,
		"updated_at":         time.Now().UTC(),
	}}
	res, err := repo.bookingColl.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set event ref on booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoBookingRepo) FindReminderDue(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":        models.BookingStatusConfirmed,
		"reminder_sent": false,
		"start":         bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder-due bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding reminder-due bookings: %w", err)
	}
	return bookings, nil
}

// MarkReminderSent includes reminder_sent=false in the filter so the flag can
// only flip once even if two sweeps race.
func (repo *MongoBookingRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "reminder_sent": false}
	update := bson.M{"$set": bson.M{
		"reminder_sent": true,
		"updated_at":    time.Now().UTC(),
	}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent for booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}
