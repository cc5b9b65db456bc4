package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"betledger/internal/core"
	"betledger/internal/log"
)

const entryColumns = "id, user_id, entry_date, profit, withdrawal"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.FinancialEntry, error) {
	var e core.FinancialEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Profit, &e.Withdrawal)
	return e, err
}

// ListEntries implements store.EntryStore
func (r *Repository) ListEntries(ctx context.Context, userID string, from, to *core.Date) ([]core.FinancialEntry, error) {
	query := "SELECT " + entryColumns + " FROM financial_entries WHERE user_id = ?"
	args := []any{userID}
	if from != nil {
		query += " AND entry_date >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND entry_date < ?"
		args = append(args, *to)
	}
	query += " ORDER BY entry_date DESC"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]core.FinancialEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// GetEntry implements store.EntryStore
func (r *Repository) GetEntry(ctx context.Context, userID string, date core.Date) (core.FinancialEntry, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind("SELECT "+entryColumns+" FROM financial_entries WHERE user_id = ? AND entry_date = ?"),
		userID, date)
	e, err := scanEntry(row)
	if err != nil {
		return core.FinancialEntry{}, notFound("entry", date.String(), err)
	}
	return e, nil
}

// AddToEntry implements store.EntryStore
func (r *Repository) AddToEntry(ctx context.Context, userID string, date core.Date, kind core.EntryKind, amount core.Money) (core.FinancialEntry, error) {
	var merged core.FinancialEntry
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		merged, err = r.mergeEntry(ctx, tx, userID, core.NewEntryInput(date, kind, amount))
		return err
	})
	if err != nil {
		return core.FinancialEntry{}, err
	}
	r.logger.DebugContext(ctx, "Entry merged",
		log.FieldUserID, userID,
		log.FieldDate, date.String(),
		log.FieldEntryKind, string(kind),
		log.FieldAmount, amount.Fixed())
	return merged, nil
}

// UpsertEntries implements store.EntryStore
func (r *Repository) UpsertEntries(ctx context.Context, userID string, inputs []core.EntryInput) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, in := range inputs {
			if _, err := r.mergeEntry(ctx, tx, userID, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Entries merged", log.FieldUserID, userID, log.FieldRows, len(inputs))
	return nil
}

// mergeEntry adds in to the (user, date) row. PostgreSQL does the addition in
// the upsert itself; SQLite stores amounts as text, so the sum is computed
// here while the single connection holds the transaction.
func (r *Repository) mergeEntry(ctx context.Context, tx *sql.Tx, userID string, in core.EntryInput) (core.FinancialEntry, error) {
	now := r.now()
	if r.dialect == Postgres {
		row := tx.QueryRowContext(ctx, r.rebind(`
			INSERT INTO financial_entries (id, user_id, entry_date, profit, withdrawal, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, entry_date) DO UPDATE SET
				profit = financial_entries.profit + EXCLUDED.profit,
				withdrawal = financial_entries.withdrawal + EXCLUDED.withdrawal,
				updated_at = EXCLUDED.updated_at
			RETURNING `+entryColumns),
			uuid.New().String(), userID, in.Date, in.Profit, in.Withdrawal, now, now)
		e, err := scanEntry(row)
		if err != nil {
			return core.FinancialEntry{}, fmt.Errorf("upsert entry %s: %w", in.Date, err)
		}
		return e, nil
	}

	existing, err := scanEntry(tx.QueryRowContext(ctx,
		r.rebind("SELECT "+entryColumns+" FROM financial_entries WHERE user_id = ? AND entry_date = ?"),
		userID, in.Date))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = core.FinancialEntry{ID: uuid.New().String(), UserID: userID, Date: in.Date}
	case err != nil:
		return core.FinancialEntry{}, fmt.Errorf("read entry %s: %w", in.Date, err)
	}
	merged := existing.Merge(in)

	_, err = tx.ExecContext(ctx, r.rebind(`
		INSERT INTO financial_entries (id, user_id, entry_date, profit, withdrawal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, entry_date) DO UPDATE SET
			profit = excluded.profit,
			withdrawal = excluded.withdrawal,
			updated_at = excluded.updated_at`),
		merged.ID, userID, merged.Date, merged.Profit, merged.Withdrawal, now, now)
	if err != nil {
		return core.FinancialEntry{}, fmt.Errorf("upsert entry %s: %w", in.Date, err)
	}
	return merged, nil
}

// GetSummary implements store.SummaryStore
func (r *Repository) GetSummary(ctx context.Context, userID string) (*core.FinancialSummary, error) {
	s := core.FinancialSummary{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		r.rebind("SELECT bankroll FROM financial_summary WHERE user_id = ?"), userID).Scan(&s.Bankroll)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return &s, nil
}

// SetBankroll implements store.SummaryStore
func (r *Repository) SetBankroll(ctx context.Context, userID string, amount core.Money) (core.FinancialSummary, error) {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO financial_summary (user_id, bankroll, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET bankroll = excluded.bankroll, updated_at = excluded.updated_at`),
		userID, amount, r.now())
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("set bankroll: %w", err)
	}
	r.logger.DebugContext(ctx, "Bankroll set", log.FieldUserID, userID, log.FieldAmount, amount.Fixed())
	return core.FinancialSummary{UserID: userID, Bankroll: amount}, nil
}
