// Package memory is an in-process sheets mirror for tests and for running
// the worker without Google credentials.
package memory

import (
	"context"
	"sync"

	"betledger/internal/core"
	ports "betledger/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []core.FinancialEntry
}

var _ ports.EntryMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// MirrorEntry records the entry as one appended row.
func (m *Mirror) MirrorEntry(_ context.Context, e core.FinancialEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, e)
	return nil
}

// Rows returns a copy of the mirrored rows in append order.
func (m *Mirror) Rows() []core.FinancialEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.FinancialEntry(nil), m.rows...)
}

// Latest returns the last mirrored state of a user's day.
func (m *Mirror) Latest(userID string, date core.Date) (core.FinancialEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if r := m.rows[i]; r.UserID == userID && r.Date.Equal(date) {
			return r, true
		}
	}
	return core.FinancialEntry{}, false
}
