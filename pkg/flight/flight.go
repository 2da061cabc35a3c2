// Package flight coalesces concurrent lookups for the same key into a single
// call and keeps successful results for a bounded time.
package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultCleanup = time.Minute

type Cache[K ~string, V any] struct {
	finished *cache.Cache

	pending map[K]*job[V]
	pmu     *sync.Mutex

	work func(context.Context, K) (V, error)

	// ttl is the retention for future writes in nanoseconds; <= 0 keeps results forever.
	ttl *atomic.Int64
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

type Option func(*settings)

type settings struct {
	cleanup time.Duration
}

// WithCleanupInterval sets how often expired results are evicted.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *settings) { s.cleanup = d }
}

func NewCache[K ~string, V any](work func(context.Context, K) (V, error), opts ...Option) *Cache[K, V] {
	s := settings{cleanup: defaultCleanup}
	for _, opt := range opts {
		opt(&s)
	}

	var ttl atomic.Int64
	ttl.Store(int64(time.Hour))
	return &Cache[K, V]{
		finished: cache.New(cache.NoExpiration, s.cleanup),
		pending:  make(map[K]*job[V]),
		pmu:      new(sync.Mutex),
		work:     work,
		ttl:      &ttl,
	}
}

// Expiry sets how long future results are retained. d <= 0 retains them forever.
func (p *Cache[K, V]) Expiry(d time.Duration) {
	p.ttl.Store(int64(max(d, 0)))
}

// Get returns the cached value for k, joins an in-flight call for k, or starts
// one. Errors are returned to every waiter but never cached.
//
// The call runs detached from the starting caller's cancellation but keeps
// its deadline, so one caller going away does not fail the others. Every
// caller stops waiting when its own ctx ends.
func (p *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	p.pmu.Lock()

	if v, ok := p.lookup(k); ok {
		p.pmu.Unlock()
		return v, nil
	}

	j, ok := p.pending[k]
	if !ok {
		j = &job[V]{done: make(chan struct{})}
		p.pending[k] = j
		wctx, cancel := detach(ctx)
		go p.run(wctx, cancel, k, j)
	}
	p.pmu.Unlock()

	select {
	case <-j.done:
		return j.val, j.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Forget drops any retained result for k.
func (p *Cache[K, V]) Forget(k K) {
	p.finished.Delete(string(k))
}

// Len reports the number of retained results. Expired results count until
// the next cleanup evicts them.
func (p *Cache[K, V]) Len() int {
	return p.finished.ItemCount()
}

func (p *Cache[K, V]) run(ctx context.Context, cancel context.CancelFunc, k K, j *job[V]) {
	defer cancel()

	j.val, j.err = p.work(ctx, k)
	if j.err == nil {
		p.store(k, j.val)
	}

	p.pmu.Lock()
	close(j.done)
	delete(p.pending, k)
	p.pmu.Unlock()
}

// detach drops ctx's cancellation and keeps its deadline and values.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	wctx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(wctx, deadline)
	}
	return context.WithCancel(wctx)
}

func (p *Cache[K, V]) lookup(k K) (V, bool) {
	v, ok := p.finished.Get(string(k))
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (p *Cache[K, V]) store(k K, val V) {
	d := time.Duration(p.ttl.Load())
	if d <= 0 {
		d = cache.NoExpiration
	}
	p.finished.Set(string(k), val, d)
}
