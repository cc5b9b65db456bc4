// Package cache provides the read cache for derived views such as the
// dashboard. Entries are keyed per user so that a write can drop every view
// of that user at once.
package cache

import (
	"context"
	"fmt"
	"time"

	"betledger/internal/log"
)

// Cache is a best-effort key/value cache. Implementations never fail a
// caller: errors degrade to misses.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, data T)
	Delete(ctx context.Context, key string)
	// DeletePrefix removes every key starting with prefix and reports how many went.
	DeletePrefix(ctx context.Context, prefix string) int
}

// DashboardKey is the key of a user's dashboard for a zero-based month.
func DashboardKey(userID string, year, month0 int) string {
	return fmt.Sprintf("%s%d-%02d", UserPrefix(userID), year, month0)
}

// UserPrefix is the prefix shared by all cached views of userID.
func UserPrefix(userID string) string {
	return "dashboard:" + userID + ":"
}

// Cleaner is implemented by caches that hold expired entries until swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup sweeps every interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.sweep(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup goroutine and waits for it. It must only be called
// after StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
