package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReport struct {
	RunID string
	Sent  int
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache[testReport]()
	ctx := context.Background()

	report := testReport{RunID: "run-1", Sent: 3}
	require.NoError(t, c.Set(ctx, "last-run", report, time.Minute))

	got, err := c.Get(ctx, "last-run")
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache[testReport]()

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	time.Sleep(5 * time.Millisecond)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemoryCache[testReport]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "last-run", testReport{RunID: "run-1"}, time.Minute))
	require.NoError(t, c.Set(ctx, "last-run", testReport{RunID: "run-2"}, time.Minute))

	got, err := c.Get(ctx, "last-run")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
}

func TestMemoryCacheHealth(t *testing.T) {
	c := NewMemoryCache[string]()
	assert.NoError(t, c.Health(context.Background()))
}
