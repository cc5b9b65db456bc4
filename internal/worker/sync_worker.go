// Package worker mirrors changed entries to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"betledger/internal/amqp"
	"betledger/internal/core"
	"betledger/internal/log"
	"betledger/internal/metrics"
	"betledger/internal/sheets"
	"betledger/internal/store"
)

// SyncWorker reads the current state of a changed entry from the store and
// appends it to the mirror.
type SyncWorker struct {
	entries store.EntryStore
	mirror  sheets.EntryMirror
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewSyncWorker(entries store.EntryStore, mirror sheets.EntryMirror, m *metrics.Metrics, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		entries: entries,
		mirror:  mirror,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEntryChanged processes one entry.changed message. An error requeues
// the message, so only transient failures are returned: a bad date or an
// entry that no longer exists is logged and acknowledged.
func (w *SyncWorker) HandleEntryChanged(ctx context.Context, msg *amqp.EntryChangedMessage) error {
	date, err := core.ParseISODate(msg.Date)
	if err != nil {
		w.logger.WarnContext(ctx, "Ignoring message with invalid date",
			log.FieldUserID, msg.UserID, log.FieldDate, msg.Date)
		return nil
	}

	entry, err := w.entries.GetEntry(ctx, msg.UserID, date)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Entry not found, nothing to mirror",
			log.FieldUserID, msg.UserID, log.FieldDate, msg.Date)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if err := w.sync(ctx, entry); err != nil {
		return err
	}
	return nil
}

// Backfill mirrors every entry of a user, oldest first. It keeps going past
// failures and reports how many rows were written.
func (w *SyncWorker) Backfill(ctx context.Context, userID string) (int, error) {
	entries, err := w.entries.ListEntries(ctx, userID, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("list entries for backfill: %w", err)
	}

	synced, failed := 0, 0
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.sync(ctx, entries[i]); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror entry during backfill",
				log.FieldUserID, userID, log.FieldDate, entries[i].Date.String(), log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		log.FieldUserID, userID,
		"total", len(entries),
		"synced", synced,
		"errors", failed)
	if failed > 0 {
		return synced, fmt.Errorf("backfill: %d of %d entries failed", failed, len(entries))
	}
	return synced, nil
}

func (w *SyncWorker) sync(ctx context.Context, entry core.FinancialEntry) error {
	err := w.mirror.MirrorEntry(ctx, entry)
	w.metrics.EntrySynced(err)
	if err != nil {
		return fmt.Errorf("mirror entry: %w", err)
	}
	w.logger.InfoContext(ctx, "Entry mirrored",
		log.FieldUserID, entry.UserID,
		log.FieldDate, entry.Date.String(),
		"profit", entry.Profit.Fixed(),
		"withdrawal", entry.Withdrawal.Fixed())
	return nil
}
