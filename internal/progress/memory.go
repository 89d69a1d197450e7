package progress

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const janitorInterval = 5 * time.Minute

// MemoryStore keeps snapshots in process memory until ttl passes.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(ttl, janitorInterval)}
}

func (m *MemoryStore) Set(_ context.Context, id string, p Progress) error {
	m.c.Set(id, p, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Progress, bool, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return Progress{}, false, nil
	}
	p, ok := v.(Progress)
	return p, ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
