package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const dayLockTTL = 15 * time.Second

type bookingLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// AcquireDayLock inserts a lock document keyed business+date. The unique _id
// insert is the claim; a duplicate key means another process is committing a
// booking for the same business day.
func (repo *MongoBookingRepo) AcquireDayLock(ctx context.Context, businessID, date string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	lockID := fmt.Sprintf("%s:%s", businessID, date)

	// Clear an expired lock left behind by a crashed process.
	_, _ = repo.lockColl.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lt": now}})

	lock := bookingLock{
		ID:        lockID,
		ExpiresAt: now.Add(dayLockTTL),
		CreatedAt: now,
	}
	if _, err := repo.lockColl.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrLockHeld
		}
		return "", fmt.Errorf("failed to acquire day lock %s: %w", lockID, err)
	}
	return lockID, nil
}

func (repo *MongoBookingRepo) ReleaseDayLock(ctx context.Context, lockID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.lockColl.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return fmt.Errorf("failed to release day lock %s: %w", lockID, err)
	}
	return nil
}
