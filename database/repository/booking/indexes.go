package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings and lock collections.
func (repo *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on booking ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Compound index for the day-scoped overlap query
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("business_status_start_idx"),
		},
		// Reminder eligibility scan
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "reminder_sent", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("reminder_due_idx"),
		},
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	// TTL cleanup for abandoned day locks.
	lockIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("lock_ttl_idx"),
	}
	if _, err := repo.lockColl.Indexes().CreateOne(ctx, lockIndex); err != nil {
		return fmt.Errorf("failed to create lock TTL index: %w", err)
	}
	return nil
}
