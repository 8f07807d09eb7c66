package cache

import "time"

var _ CacheInterface = (*Noop)(nil)

// Noop satisfies CacheInterface for deployments without Redis configured.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Get(key string) (string, error) {
	return "", nil
}

func (n *Noop) Set(key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *Noop) Delete(key string) error {
	return nil
}

func (n *Noop) Health() map[string]interface{} {
	return map[string]interface{}{
		"status": "disabled",
		"type":   "noop",
	}
}

func (n *Noop) Close() error {
	return nil
}
