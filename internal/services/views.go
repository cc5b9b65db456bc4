package services

import (
	"context"
	"fmt"
	"sync"

	"betledger/internal/cache"
	"betledger/internal/core"
)

// Views guards the cached dashboards shared by the services. Every write
// bumps the user's generation; a load that began under an older generation
// is returned to its callers but never stored.
type Views struct {
	cache cache.Cache[core.Dashboard]

	mu   sync.Mutex
	gens map[string]uint64
}

// NewViews wraps c. A nil cache still tracks generations.
func NewViews(c cache.Cache[core.Dashboard]) *Views {
	return &Views{cache: c, gens: make(map[string]uint64)}
}

func (v *Views) enabled() bool { return v.cache != nil }

func (v *Views) generation(userID string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gens[userID]
}

// flightKey separates loads of the same month across writes.
func (v *Views) flightKey(key string, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

func (v *Views) get(ctx context.Context, key string) (core.Dashboard, bool) {
	if v.cache == nil {
		return core.Dashboard{}, false
	}
	return v.cache.Get(ctx, key)
}

// store caches d unless userID wrote after gen was taken. The check and the
// write happen under the same lock as invalidate.
func (v *Views) store(ctx context.Context, userID string, gen uint64, key string, d core.Dashboard) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cache == nil || v.gens[userID] != gen {
		return false
	}
	v.cache.Set(ctx, key, d)
	return true
}

func (v *Views) invalidate(ctx context.Context, userID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gens[userID]++
	if v.cache == nil {
		return 0
	}
	return v.cache.DeletePrefix(ctx, cache.UserPrefix(userID))
}
