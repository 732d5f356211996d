package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Predefined TTLs
const (
	TTLShort = 1 * time.Minute // 장중 시세
	TTLLong  = 1 * time.Hour   // 당일 종가
	TTLDaily = 24 * time.Hour  // 확정된 과거 종가
)

// ClosePriceKey 종목/날짜별 종가 캐시 키
func ClosePriceKey(ticker string, date time.Time) string {
	return fmt.Sprintf("close:%s:%s", ticker, date.Format("2006-01-02"))
}

// PriceRangeKey 종목/기간별 일봉 캐시 키
func PriceRangeKey(ticker string, from, to time.Time) string {
	return fmt.Sprintf("range:%s:%s:%s", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))
}
