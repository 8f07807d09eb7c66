package cache

import "time"

// CacheInterface is the subset of cache operations the API handlers use.
// A nil-safe no-op implementation backs deployments without Redis.
type CacheInterface interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error
	Health() map[string]interface{}
	Close() error
}
