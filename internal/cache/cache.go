// Package cache is a best-effort JSON cache on top of Redis.  It is never a
// source of truth: a nil client turns every call into a no-op and Redis
// errors are logged and swallowed so callers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache wraps a Redis client with a key prefix.
type Cache struct {
	rdb    *redis.Client
	prefix string
}

// New returns a Cache.  rdb may be nil.
func New(rdb *redis.Client, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// GetJSON decodes the value at key into dst and reports whether it was a
// hit.  Misses, Redis failures and undecodable entries all report false.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	raw, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache entry undecodable")
		return false
	}
	return true
}

// SetJSON stores v at key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	c.SetBytes(ctx, key, raw, ttl)
}

// GetBytes returns the raw value at key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("key", key).Warn("cache get failed")
		}
		return nil, false
	}
	return raw, true
}

// SetBytes stores a raw value at key for ttl.
func (c *Cache) SetBytes(ctx context.Context, key string, raw []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache delete failed")
	}
}

// DeletePattern removes every key matching pattern using SCAN so Redis is
// never blocked by KEYS.  It returns the number of keys removed.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) int {
	if !c.Enabled() {
		return 0
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.key(pattern), 200).Result()
		if err != nil {
			logrus.WithError(err).WithField("pattern", pattern).Warn("cache scan failed")
			return removed
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				logrus.WithError(err).WithField("pattern", pattern).Warn("cache delete failed")
				return removed
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed
		}
	}
}

// TimeslotsKey addresses one cached availability listing.
func TimeslotsKey(roomID int64, from, to time.Time) string {
	return fmt.Sprintf("timeslots:%d:%s:%s", roomID, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
}

// TimeslotsRoomPattern matches every cached listing of a room.
func TimeslotsRoomPattern(roomID int64) string {
	return fmt.Sprintf("timeslots:%d:*", roomID)
}

// InvalidateRoom drops every cached availability listing of roomID.  It is
// called after any booking or timeslot change in that room.
func (c *Cache) InvalidateRoom(ctx context.Context, roomID int64) {
	if n := c.DeletePattern(ctx, TimeslotsRoomPattern(roomID)); n > 0 {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "keys": n}).Debug("availability cache invalidated")
	}
}
