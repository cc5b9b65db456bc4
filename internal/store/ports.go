// Package store defines the persistence ports used by the services. Every
// operation is scoped to a user id; rows owned by other users behave as if
// they did not exist.
package store

import (
	"context"
	"errors"

	"betledger/internal/core"
)

// ErrNotFound is returned when a row is missing or belongs to another user.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	EntryStore interface {
		// ListEntries returns entries ordered by date descending. from and to
		// bound the half-open range [from, to); nil means unbounded.
		ListEntries(ctx context.Context, userID string, from, to *core.Date) ([]core.FinancialEntry, error)
		// GetEntry returns the entry of a day or ErrNotFound.
		GetEntry(ctx context.Context, userID string, date core.Date) (core.FinancialEntry, error)
		// AddToEntry adds amount to the kind field of the day's entry,
		// creating the entry when it does not exist.
		AddToEntry(ctx context.Context, userID string, date core.Date, kind core.EntryKind, amount core.Money) (core.FinancialEntry, error)
		// UpsertEntries merges every input additively in a single transaction.
		UpsertEntries(ctx context.Context, userID string, inputs []core.EntryInput) error
	}

	SummaryStore interface {
		// GetSummary returns nil when the user never set a bankroll.
		GetSummary(ctx context.Context, userID string) (*core.FinancialSummary, error)
		SetBankroll(ctx context.Context, userID string, amount core.Money) (core.FinancialSummary, error)
	}

	VerificationStore interface {
		// ListVerificationAccounts returns all accounts, deleted ones included,
		// oldest first.
		ListVerificationAccounts(ctx context.Context, userID string) ([]core.VerificationAccount, error)
		InsertVerificationAccount(ctx context.Context, userID, name string) (core.VerificationAccount, error)
		UpdateVerificationAccount(ctx context.Context, userID, id string, patch core.VerificationPatch) (core.VerificationAccount, error)
	}

	BettingStore interface {
		// ListBettingAccounts returns accounts newest first.
		ListBettingAccounts(ctx context.Context, userID string) ([]core.BettingAccount, error)
		InsertBettingAccount(ctx context.Context, userID, name string, stake core.Money) (core.BettingAccount, error)
		GetBettingAccount(ctx context.Context, userID, id string) (core.BettingAccount, error)
		// ListOperations returns the account's operations newest first.
		ListOperations(ctx context.Context, userID, accountID string) ([]core.BettingOperation, error)
		InsertOperation(ctx context.Context, userID string, op core.BettingOperation) (core.BettingOperation, error)
		GetOperation(ctx context.Context, userID, id string) (core.BettingOperation, error)
		SetOperationGain(ctx context.Context, userID, id string, gain core.Money) (core.BettingOperation, error)
	}

	// Store is implemented by every backend.
	Store interface {
		EntryStore
		SummaryStore
		VerificationStore
		BettingStore
		Ping(ctx context.Context) error
		Close() error
	}
)
