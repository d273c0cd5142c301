package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"bookflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// countOverlapping counts confirmed bookings for a business whose interval
// overlaps [start, end), optionally excluding one booking id. Ran inside the
// commit transaction this is the serialized check that upholds the strict
// no-overlap invariant.
func (repo *MongoBookingRepo) countOverlapping(ctx context.Context, businessID string, start, end time.Time, excludeID string) (int64, error) {
	filter := bson.M{
		"business_id": businessID,
		"status":      models.BookingStatusConfirmed,
		"start":       bson.M{"$lt": end},
		"end":         bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	count, err := repo.bookingColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("overlap count failed: %w", err)
	}
	return count, nil
}

func (repo *MongoBookingRepo) withTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// CreateConfirmed inserts the booking only if no confirmed overlap exists at
// commit time. A conflict surfaces as ErrOverlap, exactly like a pre-check
// conflict, never as an internal error.
func (repo *MongoBookingRepo) CreateConfirmed(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		count, err := repo.countOverlapping(sc, booking.BusinessID, booking.Start, booking.End, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOverlap
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
	if err == ErrOverlap {
		return ErrOverlap
	}
	if err != nil {
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}

// Reschedule updates start/end in place (same identifier) behind the same
// serialized overlap check, excluding the booking's own interval.
func (repo *MongoBookingRepo) Reschedule(ctx context.Context, id string, newStart, newEnd time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}

	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		count, err := repo.countOverlapping(sc, booking.BusinessID, newStart, newEnd, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOverlap
		}
		update := bson.M{"$set": bson.M{
			"start":      newStart,
			"end":        newEnd,
			"updated_at": time.Now().UTC(),
		}}
		res, err := repo.bookingColl.UpdateOne(sc, bson.M{"id": id, "status": models.BookingStatusConfirmed}, update)
		if err != nil {
			return fmt.Errorf("reschedule update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err == ErrOverlap || err == ErrNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("reschedule transaction failed: %w", err)
	}
	return nil
}
