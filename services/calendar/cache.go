package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookflow/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedClient memoizes busy-window reports for a short TTL so slot scans do
// not hammer the external calendar with one freebusy call per candidate.
// Mutations pass straight through; the short TTL bounds staleness after a
// mirror lands.
type CachedClient struct {
	Inner  Client
	Redis  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	return &CachedClient{Inner: inner, Redis: rdb, TTL: ttl, Logger: logger}
}

// dayBounds widens a span to UTC day boundaries so every query inside the
// same day shares one cache entry, whatever its exact interval.
func dayBounds(start, end time.Time) (time.Time, time.Time) {
	from := start.UTC().Truncate(24 * time.Hour)
	to := end.UTC().Truncate(24 * time.Hour)
	if to.Before(end.UTC()) {
		to = to.Add(24 * time.Hour)
	}
	return from, to
}

func busyKey(binding models.CalendarBinding, from, to time.Time) string {
	return fmt.Sprintf("busy:%s:%d:%d", binding.CalendarID, from.Unix(), to.Unix())
}

// filterWindows keeps the windows intersecting [start, end).
func filterWindows(windows []models.BusyWindow, start, end time.Time) []models.BusyWindow {
	var out []models.BusyWindow
	for _, w := range windows {
		if w.Start.Before(end) && w.End.After(start) {
			out = append(out, w)
		}
	}
	return out
}

func (c *CachedClient) BusyWindows(ctx context.Context, binding models.CalendarBinding, start, end time.Time) ([]models.BusyWindow, error) {
	from, to := dayBounds(start, end)
	key := busyKey(binding, from, to)

	if data, err := c.Redis.Get(ctx, key).Result(); err == nil {
		var windows []models.BusyWindow
		if jsonErr := json.Unmarshal([]byte(data), &windows); jsonErr == nil {
			return filterWindows(windows, start, end), nil
		}
		// Corrupt entry; fall through to a fresh fetch.
		c.Redis.Del(ctx, key)
	} else if err != redis.Nil {
		c.Logger.Warn("busy-window cache read failed", zap.String("key", key), zap.Error(err))
	}

	windows, err := c.Inner.BusyWindows(ctx, binding, from, to)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(windows); err == nil {
		if err := c.Redis.Set(ctx, key, data, c.TTL).Err(); err != nil {
			c.Logger.Warn("busy-window cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return filterWindows(windows, start, end), nil
}

func (c *CachedClient) CreateEvent(ctx context.Context, binding models.CalendarBinding, ev Event) (string, error) {
	return c.Inner.CreateEvent(ctx, binding, ev)
}

func (c *CachedClient) UpdateEvent(ctx context.Context, binding models.CalendarBinding, eventRef string, ev Event) error {
	return c.Inner.UpdateEvent(ctx, binding, eventRef, ev)
}

func (c *CachedClient) CancelEvent(ctx context.Context, binding models.CalendarBinding, eventRef string) error {
	return c.Inner.CancelEvent(ctx, binding, eventRef)
}
