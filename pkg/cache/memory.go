package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryCache implements Service with an in-process map. Entries are
// JSON-encoded so Get behaves identically to the Redis implementation.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]*memoryItem
	done chan struct{}
}

// NewMemoryCache creates an in-memory cache with background expiry sweeps.
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		data: make(map[string]*memoryItem),
		done: make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expireAt time.Time
	if expiration > 0 {
		expireAt = time.Now().Add(expiration)
	}
	mc.mu.Lock()
	mc.data[key] = &memoryItem{data: b, expireAt: expireAt}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.RLock()
	item, ok := mc.data[key]
	mc.mu.RUnlock()
	if !ok || item.expired() {
		return ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.data, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Close() error {
	close(mc.done)
	return nil
}

func (mc *MemoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-mc.done:
			return
		case <-ticker.C:
			mc.mu.Lock()
			for k, item := range mc.data {
				if item.expired() {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
