package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var got string
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "greeting", "hello"))

	found, err = c.Get(ctx, "greeting", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "k", 42))

	// Just before expiry the entry is served
	now = now.Add(59 * time.Second)
	var got int
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, got)

	// Past expiry the entry is a miss and is removed from the store
	now = now.Add(2 * time.Second)
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, c.Keys())
}

func TestMemoryLazyEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))

	now = now.Add(2 * time.Minute)

	// No sweep: both stale entries are still held until read
	assert.Len(t, c.Keys(), 2)

	var got int
	_, err := c.Get(ctx, "a", &got)
	require.NoError(t, err)

	// Reading "a" evicted it; "b" is untouched
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestMemoryStructValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	type pricePoint struct {
		Symbol string  `json:"symbol"`
		USD    float64 `json:"usd"`
	}

	require.NoError(t, c.Set(ctx, "sol", pricePoint{Symbol: "SOL", USD: 111.45}))

	var got pricePoint
	found, err := c.Get(ctx, "sol", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, pricePoint{Symbol: "SOL", USD: 111.45}, got)
}

func TestNewMemoryCaches(t *testing.T) {
	caches := NewMemoryCaches(TTLConfig{
		Metadata:  time.Hour,
		Price:     5 * time.Minute,
		TokenList: 24 * time.Hour,
		Security:  time.Hour,
	})

	assert.Equal(t, time.Hour, caches.Metadata.TTL())
	assert.Equal(t, 5*time.Minute, caches.Price.TTL())
	assert.Equal(t, 24*time.Hour, caches.TokenList.TTL())
	assert.Equal(t, time.Hour, caches.Security.TTL())
}
