package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

type memoryItem struct {
	value      []byte
	expiration time.Time
}

// Memory is an in-process TTL cache. Expired items are dropped on read.
type Memory struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	config Config
	now    func() time.Time
}

// NewMemory returns an empty memory cache.
func NewMemory(config Config) *Memory {
	return &Memory{
		items:  map[string]memoryItem{},
		config: config,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullKey := m.config.Prefix + key

	m.mu.RLock()
	item, ok := m.items[fullKey]
	m.mu.RUnlock()
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		m.mu.Lock()
		delete(m.items, fullKey)
		m.mu.Unlock()
		return nil, interfaces.ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiration = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[m.config.Prefix+key] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.items, m.config.Prefix+key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	for key := range m.items {
		if strings.HasPrefix(key, m.config.Prefix) {
			delete(m.items, key)
		}
	}
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored items, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
