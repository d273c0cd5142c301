package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StartHealthMonitor pings Mongo and Redis periodically and logs transitions,
// so an operator sees a dependency outage before bookings start failing.
func StartHealthMonitor(redisClient *redis.Client, mongoClient *mongo.Client, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		mongoHealthy, redisHealthy := true, true
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			redisOK := redisClient.Ping(ctx).Err() == nil
			mongoOK := mongoClient.Ping(ctx, nil) == nil
			cancel()

			if mongoOK != mongoHealthy {
				logTransition(logger, "mongo", mongoOK)
				mongoHealthy = mongoOK
			}
			if redisOK != redisHealthy {
				logTransition(logger, "redis", redisOK)
				redisHealthy = redisOK
			}
		}
	}()
}

func logTransition(logger *zap.Logger, dependency string, healthy bool) {
	if healthy {
		logger.Info("dependency recovered", zap.String("dependency", dependency))
		return
	}
	logger.Warn("dependency unhealthy", zap.String("dependency", dependency))
}
