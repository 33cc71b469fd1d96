package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds a Memory cache built with size <= 0.
const DefaultMemoryEntries = 10000

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is a process-local Cache holding at most size entries; the least
// recently used entry is evicted first. Expired entries are dropped lazily.
type Memory struct {
	items *lru.Cache[string, entry]
	now   func() time.Time
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	items, err := lru.New[string, entry](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Memory{items: items, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.items.Remove(key)
		return nil, false, nil
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items.Add(key, e)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.items.Remove(k)
	}
	return nil
}

// Len counts live and not-yet-collected entries.
func (m *Memory) Len() int {
	return m.items.Len()
}
