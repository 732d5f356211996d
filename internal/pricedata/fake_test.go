package pricedata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// stubSource 고정 응답 가격 소스
type stubSource struct {
	mu    sync.Mutex
	price float64
	bars  []contracts.Bar
	err   error
	calls int
}

func (s *stubSource) GetClose(context.Context, string, time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func (s *stubSource) GetRange(context.Context, string, time.Time, time.Time) ([]contracts.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// barSource 보유 일봉만 구간으로 돌려주는 가격 소스 (DB 소스와 같은 종가 규칙)
type barSource struct {
	bars []contracts.Bar
}

func (s *barSource) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	return contracts.CloseFromRange(ctx, s, ticker, date)
}

func (s *barSource) GetRange(_ context.Context, _ string, start, end time.Time) ([]contracts.Bar, error) {
	var out []contracts.Bar
	for _, b := range s.bars {
		d := contracts.DateOnly(b.Date)
		if !d.Before(contracts.DateOnly(start)) && !d.After(contracts.DateOnly(end)) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, contracts.ErrNoPriceData
	}
	return out, nil
}

// memCache JSON 왕복으로 redis.Cache 동작을 흉내
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}
