package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time // zero: no expiry
	lastUsed time.Time
}

// MemoryCache is a process-local BytesCache with TTL and LRU eviction.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go mc.cleanupLoop(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	it, ok := mc.data[key]
	if !ok {
		return nil, false, nil
	}
	now := mc.now()
	if it.expired(now) {
		delete(mc.data, key)
		return nil, false, nil
	}
	it.lastUsed = now
	return it.value, true, nil
}

func (mc *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if _, exists := mc.data[key]; !exists && mc.maxSize > 0 && len(mc.data) >= mc.maxSize {
		mc.evictLocked(now)
	}
	it := &memoryItem{value: append([]byte(nil), value...), lastUsed: now}
	if ttl > 0 {
		it.expireAt = now.Add(ttl)
	}
	mc.data[key] = it
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

func (it *memoryItem) expired(now time.Time) bool {
	return !it.expireAt.IsZero() && now.After(it.expireAt)
}

// evictLocked drops expired entries, or the least recently used one if
// nothing has expired.
func (mc *MemoryCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, it := range mc.data {
		if it.expired(now) {
			delete(mc.data, k)
			removed = true
			continue
		}
		if oldestKey == "" || it.lastUsed.Before(oldest) {
			oldestKey, oldest = k, it.lastUsed
		}
	}
	if !removed && oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.mu.Lock()
			now := mc.now()
			for k, it := range mc.data {
				if it.expired(now) {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
