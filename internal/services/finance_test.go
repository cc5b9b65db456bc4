package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"betledger/internal/auth"
	"betledger/internal/cache"
	"betledger/internal/core"
	"betledger/internal/log"
	"betledger/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishEntryChanged(_ context.Context, userID, date string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, userID+"@"+date)
	return p.err
}

// countingStore counts verification list calls, one per dashboard load.
type countingStore struct {
	*memory.Store
	lists atomic.Int32
	delay time.Duration
}

func (s *countingStore) ListVerificationAccounts(ctx context.Context, userID string) ([]core.VerificationAccount, error) {
	s.lists.Add(1)
	time.Sleep(s.delay)
	return s.Store.ListVerificationAccounts(ctx, userID)
}

// gatedStore holds the first full entry listing until release is closed,
// after the rows were read, so that a write can land mid-load.
type gatedStore struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) ListEntries(ctx context.Context, userID string, from, to *core.Date) ([]core.FinancialEntry, error) {
	entries, err := s.Store.ListEntries(ctx, userID, from, to)
	if from == nil {
		first := false
		s.once.Do(func() { first = true })
		if first {
			close(s.entered)
			<-s.release
		}
	}
	return entries, err
}

type failingStore struct {
	*memory.Store
}

var errStoreDown = errors.New("store down")

func (failingStore) AddToEntry(context.Context, string, core.Date, core.EntryKind, core.Money) (core.FinancialEntry, error) {
	return core.FinancialEntry{}, errStoreDown
}

func (failingStore) ListEntries(context.Context, string, *core.Date, *core.Date) ([]core.FinancialEntry, error) {
	return nil, errStoreDown
}

func userCtx(id string) context.Context {
	return auth.WithSession(context.Background(), auth.Session{UserID: id})
}

func money(s string) core.Money {
	m, err := core.ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

func newFinance(st FinanceStore, pub EventPublisher) (*FinanceService, *cache.LRUCache[core.Dashboard]) {
	c := cache.NewLRUCache[core.Dashboard](16, time.Minute)
	return NewFinanceService(st, Options{Views: NewViews(c), Publisher: pub, Logger: log.Discard()}), c
}

func TestFinanceRequiresSession(t *testing.T) {
	svc, _ := newFinance(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.AddEntry(ctx, core.NewDate(2024, 1, 1), core.KindProfit, money("1")); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("AddEntry err = %v", err)
	}
	if _, err := svc.SetBankroll(ctx, money("1")); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("SetBankroll err = %v", err)
	}
	if _, err := svc.ImportCSV(ctx, strings.NewReader("Date\n01/01/2024\n")); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("ImportCSV err = %v", err)
	}
	if _, err := svc.Dashboard(ctx, 2024, 0); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("Dashboard err = %v", err)
	}
}

func TestAddEntryMergesSameDay(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newFinance(memory.New(), pub)
	ctx := userCtx("u1")
	day := core.NewDate(2024, 3, 10)

	if _, err := svc.AddEntry(ctx, day, core.KindProfit, money("10")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddEntry(ctx, day, core.KindProfit, money("5,50")); err != nil {
		t.Fatal(err)
	}
	entry, err := svc.AddEntry(ctx, day, "WITHDRAWAL", money("3"))
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Profit.Equal(money("15.5")) || !entry.Withdrawal.Equal(money("3")) {
		t.Fatalf("entry = %+v", entry)
	}

	records, err := svc.Records(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if len(pub.events) != 3 || pub.events[0] != "u1@2024-03-10" {
		t.Fatalf("events = %v", pub.events)
	}
}

func TestAddEntryValidation(t *testing.T) {
	svc, _ := newFinance(memory.New(), nil)
	ctx := userCtx("u1")
	day := core.NewDate(2024, 3, 10)

	tests := []struct {
		name   string
		date   core.Date
		kind   core.EntryKind
		amount core.Money
		want   error
	}{
		{"zero amount", day, core.KindProfit, money("0"), core.ErrNonPositiveAmount},
		{"negative amount", day, core.KindProfit, money("-1"), core.ErrNonPositiveAmount},
		{"bad kind", day, "bonus", money("1"), core.ErrInvalidEntryKind},
		{"missing date", core.Date{}, core.KindProfit, money("1"), core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddEntry(ctx, tt.date, tt.kind, tt.amount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Fatalf("%v should classify as validation", err)
			}
		})
	}
	if records, _ := svc.Records(ctx); len(records) != 0 {
		t.Fatalf("rejected input was stored: %v", records)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc, c := newFinance(failingStore{memory.New()}, nil)
	ctx := userCtx("u1")
	c.Set(ctx, cache.DashboardKey("u1", 2024, 0), core.Dashboard{PendingCount: 9})

	_, err := svc.AddEntry(ctx, core.NewDate(2024, 1, 2), core.KindProfit, money("1"))
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v", err)
	}
	if IsValidation(err) {
		t.Fatal("store failure classified as validation")
	}
	// Failed write leaves cached views alone.
	if _, ok := c.Get(ctx, cache.DashboardKey("u1", 2024, 0)); !ok {
		t.Fatal("cache dropped on failed write")
	}
	if _, err := svc.Balance(ctx); !errors.Is(err, errStoreDown) {
		t.Fatalf("balance err = %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newFinance(memory.New(), pub)
	if _, err := svc.AddEntry(userCtx("u1"), core.NewDate(2024, 1, 2), core.KindProfit, money("1")); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newFinance(memory.New(), pub)
	ctx := userCtx("u1")

	csv := "Date,Gain,Withdrawal\n" +
		"01/02/2024,10,0\n" +
		"not a date,5,0\n" +
		"01/02/2024,2.5,1\n" +
		"03/02/2024,abc,4\n"
	res, err := svc.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 3 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	report, err := svc.MonthReport(ctx, 2024, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !report.TotalProfit.Equal(money("12.5")) || !report.TotalWithdrawal.Equal(money("5")) {
		t.Fatalf("report totals = %v / %v", report.TotalProfit, report.TotalWithdrawal)
	}
	if len(pub.events) != 2 {
		t.Fatalf("one event per distinct day, got %v", pub.events)
	}
}

func TestImportCSVNoValidRows(t *testing.T) {
	svc, _ := newFinance(memory.New(), nil)
	ctx := userCtx("u1")

	res, err := svc.ImportCSV(ctx, strings.NewReader("Date,Gain\nbad,1\n"))
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("err = %v", err)
	}
	if res.Skipped != 1 || len(res.Warnings) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if records, _ := svc.Records(ctx); len(records) != 0 {
		t.Fatalf("nothing should be written, got %v", records)
	}

	if _, err := svc.ImportCSV(ctx, strings.NewReader("Gain\n1\n")); !IsValidation(err) {
		t.Fatalf("missing date column err = %v", err)
	}
}

func TestBalanceAndSummary(t *testing.T) {
	svc, _ := newFinance(memory.New(), nil)
	ctx := userCtx("u1")

	summary, err := svc.Summary(ctx)
	if err != nil || summary != nil {
		t.Fatalf("summary = %v, %v", summary, err)
	}
	if _, err := svc.SetBankroll(ctx, money("-20")); err != nil {
		t.Fatal(err)
	}
	svc.AddEntry(ctx, core.NewDate(2023, 12, 31), core.KindProfit, money("50"))
	svc.AddEntry(ctx, core.NewDate(2024, 1, 1), core.KindWithdrawal, money("10"))

	b, err := svc.Balance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Balance.Equal(money("20")) {
		t.Fatalf("balance = %v, want 20", b.Balance)
	}
}

func TestDashboardCachedAndInvalidated(t *testing.T) {
	st := &countingStore{Store: memory.New()}
	svc, _ := newFinance(st, nil)
	ctx := userCtx("u1")
	svc.AddEntry(ctx, core.NewDate(2024, 1, 5), core.KindProfit, money("10"))

	d1, err := svc.Dashboard(ctx, 2024, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Dashboard(ctx, 2024, 0); err != nil {
		t.Fatal(err)
	}
	if n := st.lists.Load(); n != 1 {
		t.Fatalf("loads = %d, want 1 (second read from cache)", n)
	}
	if len(d1.Month.Days) != 31 || !d1.Balance.Balance.Equal(money("10")) {
		t.Fatalf("dashboard = %+v", d1.Balance)
	}

	svc.AddEntry(ctx, core.NewDate(2024, 1, 6), core.KindProfit, money("5"))
	d2, err := svc.Dashboard(ctx, 2024, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n := st.lists.Load(); n != 2 {
		t.Fatalf("loads = %d, want 2 after write", n)
	}
	if !d2.Balance.Balance.Equal(money("15")) {
		t.Fatalf("stale dashboard: %v", d2.Balance.Balance)
	}

	// Verification writes change the pending count, so they invalidate too.
	ver := NewVerificationService(st, Options{Views: svc.views, Logger: log.Discard()})
	a, _ := ver.Add(ctx, "Bookie")
	pending := core.StatusPending
	ver.Update(ctx, a.ID, core.VerificationPatch{VerificationStatus: &pending})
	d3, _ := svc.Dashboard(ctx, 2024, 0)
	if d3.PendingCount != 1 {
		t.Fatalf("pending = %d, want 1", d3.PendingCount)
	}
}

func TestDashboardWriteDuringLoad(t *testing.T) {
	st := &gatedStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	svc, c := newFinance(st, nil)
	ctx := userCtx("u1")

	type result struct {
		d   core.Dashboard
		err error
	}
	inFlight := make(chan result, 1)
	go func() {
		d, err := svc.Dashboard(ctx, 2024, 0)
		inFlight <- result{d, err}
	}()
	<-st.entered

	if _, err := svc.AddEntry(ctx, core.NewDate(2024, 1, 5), core.KindProfit, money("50")); err != nil {
		t.Fatal(err)
	}

	// A load requested after the write must not join the older one.
	fresh, err := svc.Dashboard(ctx, 2024, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.Balance.Balance.Equal(money("50")) {
		t.Fatalf("balance after write = %v, want 50", fresh.Balance.Balance)
	}

	close(st.release)
	old := <-inFlight
	if old.err != nil {
		t.Fatal(old.err)
	}
	if !old.d.Balance.Balance.IsZero() {
		t.Fatalf("in-flight load balance = %v, want the pre-write 0", old.d.Balance.Balance)
	}

	cached, ok := c.Get(ctx, cache.DashboardKey("u1", 2024, 0))
	if !ok || !cached.Balance.Balance.Equal(money("50")) {
		t.Fatalf("cached = %v (ok=%v), want 50", cached.Balance.Balance, ok)
	}
	again, err := svc.Dashboard(ctx, 2024, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Balance.Balance.Equal(money("50")) || !again.Month.TotalProfit.Equal(money("50")) {
		t.Fatalf("stale dashboard after write: %v / %v", again.Balance.Balance, again.Month.TotalProfit)
	}
}

func TestViewsStoreRejectsOlderGeneration(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLRUCache[core.Dashboard](4, time.Minute)
	v := NewViews(c)
	key := cache.DashboardKey("u1", 2024, 0)

	gen := v.generation("u1")
	v.invalidate(ctx, "u1")
	if v.store(ctx, "u1", gen, key, core.Dashboard{PendingCount: 1}) {
		t.Fatal("stored a view loaded before the write")
	}
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("stale view reached the cache")
	}
	if !v.store(ctx, "u1", v.generation("u1"), key, core.Dashboard{PendingCount: 2}) {
		t.Fatal("current view not stored")
	}
	if v.flightKey(key, 0) == v.flightKey(key, 1) {
		t.Fatal("flight keys collide across generations")
	}
	// Other users are unaffected.
	if v.generation("u2") != 0 {
		t.Fatal("generation leaked to another user")
	}
}

func TestDashboardConcurrentLoadsShareWork(t *testing.T) {
	st := &countingStore{Store: memory.New(), delay: 50 * time.Millisecond}
	svc := NewFinanceService(st, Options{Logger: log.Discard()})
	ctx := userCtx("u1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Dashboard(ctx, 2024, 0); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := st.lists.Load(); n >= 8 {
		t.Fatalf("loads = %d, expected concurrent calls to be collapsed", n)
	}
}

func TestDashboardRejectsBadMonth(t *testing.T) {
	svc, _ := newFinance(memory.New(), nil)
	if _, err := svc.Dashboard(userCtx("u1"), 2024, 12); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("err = %v", err)
	}
}
