package memory

import (
	"context"
	"sync"
	"testing"

	"betledger/internal/core"
	"betledger/internal/store"
	"betledger/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestConcurrentAddToEntry(t *testing.T) {
	s := New()
	d := core.NewDate(2024, 1, 1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddToEntry(context.Background(), "u1", d, core.KindProfit, core.MoneyFromInt(1)); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()
	e, err := s.GetEntry(context.Background(), "u1", d)
	if err != nil || !e.Profit.Equal(core.MoneyFromInt(50)) {
		t.Fatalf("profit=%s err=%v, want 50", e.Profit, err)
	}
}
