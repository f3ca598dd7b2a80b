package dataflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestValidateSymbol(t *testing.T) {
	for _, ok := range []string{"AAPL", " msft ", "0700.HK", "BRK-B", "^GSPC", "600519.SH"} {
		assert.NoError(t, ValidateSymbol(ok), ok)
	}
	for _, bad := range []string{"", "   ", "AAPL MSFT", "TOOLONGSYMBOL1", "$AAPL"} {
		err := ValidateSymbol(bad)
		assert.ErrorIs(t, err, ErrInvalidSymbol, bad)
	}
}

func TestIsAsianListing(t *testing.T) {
	assert.True(t, IsAsianListing("0700.hk"))
	assert.True(t, IsAsianListing("000001.SZ"))
	assert.False(t, IsAsianListing("AAPL"))
}

func TestParseDateString(t *testing.T) {
	want := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-07-04", "07/04/2025", "07-04-2025"} {
		got, err := ParseDateString(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := ParseDateString("July 4th")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent stops immediately", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return Permanent(ErrNoData)
		})
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return errors.New("down")
		})
		assert.ErrorContains(t, err, "max retries exceeded")
		assert.Equal(t, 3, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}, func() error {
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCacheManager(t *testing.T) {
	dir := t.TempDir()
	cm := NewCacheManager(dir, time.Hour, true)

	type payload struct{ Value int }
	var got payload
	assert.False(t, cm.Get("src", "m", "k", &got))

	cm.Set("src", "m", "k", payload{Value: 7})
	require.True(t, cm.Get("src", "m", "k", &got))
	assert.Equal(t, 7, got.Value)
	assert.False(t, cm.Get("src", "m", "other", &got))

	disabled := NewCacheManager(dir, time.Hour, false)
	assert.False(t, disabled.Get("src", "m", "k", &got))

	var nilCache *CacheManager
	assert.False(t, nilCache.Get("src", "m", "k", &got))
	nilCache.Set("src", "m", "k", payload{})
}

func TestCacheManagerExpires(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Nanosecond, true)
	cm.Set("src", "m", "k", 1)
	time.Sleep(5 * time.Millisecond)
	var v int
	assert.False(t, cm.Get("src", "m", "k", &v))
}
