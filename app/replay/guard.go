// Package replay suppresses duplicate processing of webhook deliveries.
// Gateways deliver at-least-once and operators retry by hand, so the same
// (transaction, status, amount) tuple routinely arrives more than once
// within a short window.
package replay

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultWindow     = 5 * time.Minute
	defaultMaxEntries = 100_000
)

// Guard remembers recently seen delivery keys. Remember returns true when
// the key was already recorded inside the window. Forget releases a key so
// a gateway retry after a failed reconciliation is processed again instead
// of being swallowed as a duplicate. Guards are advisory: a false negative
// only costs a re-run of the idempotent reconciliation, so callers treat
// guard errors as "not seen".
type Guard interface {
	Remember(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// MemoryGuard is a mutex-guarded bounded map with opportunistic pruning.
// It only protects a single process; multi-instance deployments must use
// the Redis-backed guard instead.
type MemoryGuard struct {
	mu         sync.Mutex
	window     time.Duration
	maxEntries int
	seen       map[string]time.Time
	now        func() time.Time
}

func NewMemoryGuard(window time.Duration) *MemoryGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryGuard{
		window:     window,
		maxEntries: defaultMaxEntries,
		seen:       make(map[string]time.Time),
		now:        time.Now,
	}
}

func (g *MemoryGuard) Remember(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)

	if ts, ok := g.seen[key]; ok && now.Sub(ts) < g.window {
		return true, nil
	}
	if len(g.seen) >= g.maxEntries {
		// Cap hit; skip recording rather than grow without bound. The
		// reconciler stays correct on replays either way.
		return false, nil
	}
	g.seen[key] = now
	return false, nil
}

func (g *MemoryGuard) Forget(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}

func (g *MemoryGuard) pruneLocked(now time.Time) {
	for key, ts := range g.seen {
		if now.Sub(ts) >= g.window {
			delete(g.seen, key)
		}
	}
}
