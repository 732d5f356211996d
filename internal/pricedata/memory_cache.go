package pricedata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MemoryCache redis 미사용 시 프로세스 내 가격 캐시
// 값은 JSON으로 보관해 redis.Cache와 같은 복사 의미를 가짐
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	log     zerolog.Logger
	now     func() time.Time
}

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache(log zerolog.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		log:     log.With().Str("component", "pricedata.memcache").Logger(),
		now:     time.Now,
	}
}

// Get 만료되지 않은 값을 dest로 복원
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set 값 저장 (ttl 경과 후 만료)
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{raw: raw, expiresAt: c.now().Add(ttl)}
	return nil
}

// Len returns the number of entries (expired included until cleaned)
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale 만료 항목 제거
func (c *MemoryCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.log.Info().Int("count", count).Msg("cleaned stale prices from cache")
	}

	return count
}
