package pricedata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/pkg/redis"
)

var cacheToday = time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

func newTestCached(inner contracts.PriceLookup, cache Cache) *CachedSource {
	s := NewCachedSource(inner, cache, 30*time.Minute, zerolog.Nop())
	s.now = func() time.Time { return cacheToday }
	return s
}

func TestCachedSource_GetCloseHit(t *testing.T) {
	inner := &stubSource{price: 72500}
	cache := newMemCache()
	s := newTestCached(inner, cache)

	past := cacheToday.AddDate(0, 0, -3)
	for i := 0; i < 3; i++ {
		got, err := s.GetClose(context.Background(), "005930", past)
		require.NoError(t, err)
		assert.Equal(t, 72500.0, got)
	}

	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, redis.TTLDaily, cache.ttls[redis.ClosePriceKey("005930", contracts.DateOnly(past))])
}

func TestCachedSource_TodayUsesConfiguredTTL(t *testing.T) {
	cache := newMemCache()
	s := newTestCached(&stubSource{price: 1}, cache)

	_, err := s.GetClose(context.Background(), "005930", cacheToday)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cache.ttls[redis.ClosePriceKey("005930", contracts.DateOnly(cacheToday))])
}

func TestCachedSource_NoDataNotCached(t *testing.T) {
	inner := &stubSource{err: contracts.ErrNoPriceData}
	cache := newMemCache()
	s := newTestCached(inner, cache)

	for i := 0; i < 2; i++ {
		_, err := s.GetClose(context.Background(), "X", cacheToday)
		assert.ErrorIs(t, err, contracts.ErrNoPriceData)
	}
	assert.Equal(t, 2, inner.callCount())
	assert.Empty(t, cache.data)
}

func TestCachedSource_GetRange(t *testing.T) {
	bars := []contracts.Bar{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: 100, Volume: 10},
		{Date: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Close: 101, Volume: 11},
	}
	inner := &stubSource{bars: bars}
	s := newTestCached(inner, newMemCache())

	start, end := bars[0].Date, bars[1].Date
	first, err := s.GetRange(context.Background(), "005930", start, end)
	require.NoError(t, err)
	second, err := s.GetRange(context.Background(), "005930", start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, first, second)
}
