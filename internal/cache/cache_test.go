package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T, prefix string) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, prefix), mr
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t, "rb")
	ctx := context.Background()

	var got entry
	assert.False(t, c.GetJSON(ctx, "k", &got))

	c.SetJSON(ctx, "k", entry{ID: 1, Name: "a"}, time.Minute)
	assert.True(t, mr.Exists("rb:k"))
	require.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, entry{ID: 1, Name: "a"}, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.GetJSON(ctx, "k", &got))
}

func TestCache_InvalidateRoom(t *testing.T) {
	c, mr := newTestCache(t, "")
	ctx := context.Background()
	from := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	c.SetJSON(ctx, TimeslotsKey(3, from, from.Add(24*time.Hour)), []int{1}, time.Minute)
	c.SetJSON(ctx, TimeslotsKey(3, from.Add(24*time.Hour), from.Add(48*time.Hour)), []int{2}, time.Minute)
	c.SetJSON(ctx, TimeslotsKey(31, from, from.Add(24*time.Hour)), []int{3}, time.Minute)

	c.InvalidateRoom(ctx, 3)

	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists(TimeslotsKey(31, from, from.Add(24*time.Hour))))
}

func TestCache_UndecodableIsMiss(t *testing.T) {
	c, mr := newTestCache(t, "")
	require.NoError(t, mr.Set("k", "not json"))

	var got entry
	assert.False(t, c.GetJSON(context.Background(), "k", &got))
}

func TestCache_NilClientIsNoop(t *testing.T) {
	c := New(nil, "rb")
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.SetJSON(ctx, "k", 1, time.Minute)
	var v int
	assert.False(t, c.GetJSON(ctx, "k", &v))
	assert.Equal(t, 0, c.DeletePattern(ctx, "*"))
	c.InvalidateRoom(ctx, 3)
}

func TestTimeslotsKey(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	from := time.Date(2026, 5, 4, 3, 0, 0, 0, loc)
	assert.Equal(t, "timeslots:7:2026-05-04T00:00:00Z:2026-05-05T00:00:00Z",
		TimeslotsKey(7, from, from.Add(24*time.Hour)))
}

func TestTimeslotsKey_KeepsSubSecondPrecision(t *testing.T) {
	to := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	whole := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)

	assert.NotEqual(t, TimeslotsKey(1, whole, to), TimeslotsKey(1, half, to))
	assert.Equal(t, "timeslots:1:2026-05-04T09:00:00.5Z:2026-05-04T10:00:00Z", TimeslotsKey(1, half, to))
}
