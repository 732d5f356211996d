package pricedata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/pkg/redis"
)

// Cache 가격 캐시 저장소 (*redis.Cache가 구현)
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ Cache = (*redis.Cache)(nil)

// CachedSource 종가/일봉 조회 결과를 캐시하는 데코레이터
// 오늘 이전 날짜는 확정값이라 일 단위 TTL, 오늘 날짜는 설정 TTL 적용
// 데이터 없음과 조회 실패는 캐시하지 않음
type CachedSource struct {
	inner contracts.PriceLookup
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

// NewCachedSource wraps inner with cache
func NewCachedSource(inner contracts.PriceLookup, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedSource{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "pricedata.cache").Logger(),
		now:   time.Now,
	}
}

var _ contracts.PriceLookup = (*CachedSource)(nil)

// GetClose 캐시 우선 종가 조회
func (s *CachedSource) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	key := redis.ClosePriceKey(ticker, contracts.DateOnly(date))

	var cached float64
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if hit {
		return cached, nil
	}

	price, err := s.inner.GetClose(ctx, ticker, date)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, price, s.ttlFor(date)); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return price, nil
}

// GetRange 캐시 우선 일봉 조회
func (s *CachedSource) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	key := redis.PriceRangeKey(ticker, contracts.DateOnly(start), contracts.DateOnly(end))

	var cached []contracts.Bar
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if hit && len(cached) > 0 {
		return cached, nil
	}

	bars, err := s.inner.GetRange(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		if err := s.cache.Set(ctx, key, bars, s.ttlFor(end)); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return bars, nil
}

// ttlFor 확정된 과거 날짜는 일 단위, 당일은 설정 TTL
func (s *CachedSource) ttlFor(date time.Time) time.Duration {
	if contracts.DateOnly(date).Before(contracts.DateOnly(s.now())) {
		return redis.TTLDaily
	}
	return s.ttl
}
