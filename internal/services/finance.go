package services

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"betledger/internal/cache"
	"betledger/internal/core"
	"betledger/internal/csvimport"
	"betledger/internal/log"
	"betledger/internal/store"
)

// FinanceStore is what FinanceService needs from persistence. The
// verification port feeds the pending count of the dashboard.
type FinanceStore interface {
	store.EntryStore
	store.SummaryStore
	store.VerificationStore
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings"`
}

// FinanceService records daily results and derives the balance views.
type FinanceService struct {
	base
	store FinanceStore
	group singleflight.Group
}

func NewFinanceService(st FinanceStore, opts Options) *FinanceService {
	return &FinanceService{base: newBase(opts, log.ComponentFinance), store: st}
}

// Records returns every entry of the user, newest day first.
func (s *FinanceService) Records(ctx context.Context) ([]core.FinancialEntry, error) {
	userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Summary returns the bankroll record, nil when it was never set.
func (s *FinanceService) Summary(ctx context.Context) (*core.FinancialSummary, error) {
	userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.GetSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return summary, nil
}

// AddEntry adds amount to the day's profit or withdrawal. Entries are merged,
// never duplicated: a second profit on the same day increases the first.
func (s *FinanceService) AddEntry(ctx context.Context, date core.Date, kind core.EntryKind, amount core.Money) (core.FinancialEntry, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.FinancialEntry{}, err
	}
	if date.IsZero() {
		return core.FinancialEntry{}, core.ErrInvalidDate
	}
	if kind, err = core.ParseEntryKind(string(kind)); err != nil {
		return core.FinancialEntry{}, err
	}
	if !amount.IsPositive() {
		return core.FinancialEntry{}, core.ErrNonPositiveAmount
	}

	entry, err := s.store.AddToEntry(ctx, userID, date, kind, amount)
	if err != nil {
		return core.FinancialEntry{}, fmt.Errorf("save entry: %w", err)
	}
	s.metrics.EntryWritten("form", 1)
	s.logger.InfoContext(ctx, "Entry recorded",
		log.NewFields().WithUser(userID).WithEntry(date.String(), string(kind), amount.Fixed()).ToSlice()...)

	s.invalidate(ctx, userID)
	s.publish(ctx, userID, date)
	return entry, nil
}

// SetBankroll replaces the bankroll baseline. Negative values are allowed.
func (s *FinanceService) SetBankroll(ctx context.Context, amount core.Money) (core.FinancialSummary, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	summary, err := s.store.SetBankroll(ctx, userID, amount)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("save bankroll: %w", err)
	}
	s.invalidate(ctx, userID)
	return summary, nil
}

// ImportCSV parses r and merges every valid row into the user's entries in
// one batch. When no row survives parsing nothing is written and
// ErrNoValidRows is returned together with the warnings.
func (s *FinanceService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	userID, err := session(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	parsed, err := csvimport.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse csv: %w", err)
	}
	result := ImportResult{
		Imported: len(parsed.Rows),
		Skipped:  parsed.Skipped,
		Warnings: parsed.Warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if len(parsed.Rows) == 0 {
		s.metrics.CSVImported(0, parsed.Skipped)
		return result, ErrNoValidRows
	}

	if err := s.store.UpsertEntries(ctx, userID, parsed.Rows); err != nil {
		return ImportResult{}, fmt.Errorf("import entries: %w", err)
	}
	s.metrics.CSVImported(result.Imported, result.Skipped)
	s.metrics.EntryWritten("csv", result.Imported)
	s.logger.InfoContext(ctx, "CSV imported",
		log.FieldUserID, userID,
		log.FieldRows, result.Imported,
		log.FieldSkipped, result.Skipped)

	s.invalidate(ctx, userID)
	seen := make(map[string]bool, len(parsed.Rows))
	for _, row := range parsed.Rows {
		if key := row.Date.String(); !seen[key] {
			seen[key] = true
			s.publish(ctx, userID, row.Date)
		}
	}
	return result, nil
}

// MonthReport aggregates the entries of a zero-based month by day.
func (s *FinanceService) MonthReport(ctx context.Context, year, month0 int) (core.MonthReport, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.MonthReport{}, err
	}
	if err := core.ValidateMonth0(month0); err != nil {
		return core.MonthReport{}, err
	}
	entries, err := s.monthEntries(ctx, userID, year, month0)
	if err != nil {
		return core.MonthReport{}, err
	}
	return core.AggregateMonth(year, month0, entries), nil
}

// Balance computes the all-time running balance.
func (s *FinanceService) Balance(ctx context.Context) (core.BalanceReport, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.BalanceReport{}, err
	}
	summary, err := s.store.GetSummary(ctx, userID)
	if err != nil {
		return core.BalanceReport{}, fmt.Errorf("get summary: %w", err)
	}
	entries, err := s.store.ListEntries(ctx, userID, nil, nil)
	if err != nil {
		return core.BalanceReport{}, fmt.Errorf("list entries: %w", err)
	}
	return core.Balance(bankroll(summary), entries), nil
}

// Dashboard builds the landing view for a month. Results are cached per user
// and month until the next write of that user, and concurrent loads of the
// same key share one computation.
func (s *FinanceService) Dashboard(ctx context.Context, year, month0 int) (core.Dashboard, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	if err := core.ValidateMonth0(month0); err != nil {
		return core.Dashboard{}, err
	}

	gen := s.views.generation(userID)
	key := cache.DashboardKey(userID, year, month0)
	if s.views.enabled() {
		if d, ok := s.views.get(ctx, key); ok {
			s.metrics.CacheResult(true)
			return d, nil
		}
		s.metrics.CacheResult(false)
	}

	v, err, _ := s.group.Do(s.views.flightKey(key, gen), func() (any, error) {
		// Detached so one caller going away does not fail the others.
		return s.loadDashboard(context.WithoutCancel(ctx), userID, year, month0)
	})
	if err != nil {
		return core.Dashboard{}, err
	}
	d := v.(core.Dashboard)
	if !s.views.store(ctx, userID, gen, key, d) && s.views.enabled() {
		s.logger.DebugContext(ctx, "Dashboard not cached, user wrote during load", log.FieldUserID, userID)
	}
	return d, nil
}

func (s *FinanceService) loadDashboard(ctx context.Context, userID string, year, month0 int) (core.Dashboard, error) {
	var (
		summary  *core.FinancialSummary
		all      []core.FinancialEntry
		month    []core.FinancialEntry
		accounts []core.VerificationAccount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if summary, err = s.store.GetSummary(gctx, userID); err != nil {
			return fmt.Errorf("get summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if all, err = s.store.ListEntries(gctx, userID, nil, nil); err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		month, err = s.monthEntries(gctx, userID, year, month0)
		return err
	})
	g.Go(func() error {
		var err error
		if accounts, err = s.store.ListVerificationAccounts(gctx, userID); err != nil {
			return fmt.Errorf("list verification accounts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	return core.BuildDashboard(year, month0, bankroll(summary), all, month, accounts), nil
}

func (s *FinanceService) monthEntries(ctx context.Context, userID string, year, month0 int) ([]core.FinancialEntry, error) {
	from, to := core.MonthRange(year, month0)
	entries, err := s.store.ListEntries(ctx, userID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("list month entries: %w", err)
	}
	return entries, nil
}

func bankroll(summary *core.FinancialSummary) *core.Money {
	if summary == nil {
		return nil
	}
	b := summary.Bankroll
	return &b
}
