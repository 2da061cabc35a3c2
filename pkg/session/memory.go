package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"storyteller/pkg/state"
)

// MemoryStore keeps sessions in process. Sessions idle for longer than the
// TTL are evicted; every write refreshes the TTL.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

func (m *MemoryStore) Create(_ context.Context) (string, state.UIState, error) {
	id := newID()
	st := state.New()
	m.cache.Set(id, st, cache.DefaultExpiration)
	return id, st, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (state.UIState, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return state.UIState{}, ErrNotFound
	}
	return v.(state.UIState), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*state.UIState) error) (state.UIState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(id)
	if !ok {
		return state.UIState{}, ErrNotFound
	}
	current := v.(state.UIState)
	next := current
	if err := fn(&next); err != nil {
		return current, err
	}
	m.cache.Set(id, next, cache.DefaultExpiration)
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if _, ok := m.cache.Get(id); !ok {
		return ErrNotFound
	}
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
