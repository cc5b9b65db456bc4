// Package memory is an in-process implementation of store.Store, used for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"betledger/internal/core"
	"betledger/internal/store"
)

type entryKey struct {
	user string
	date string
}

type Store struct {
	mu sync.Mutex

	entries   map[entryKey]core.FinancialEntry
	summaries map[string]core.FinancialSummary
	// Slices keep insertion order, which is creation order.
	verification []core.VerificationAccount
	accounts     []core.BettingAccount
	operations   []core.BettingOperation

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		entries:   make(map[entryKey]core.FinancialEntry),
		summaries: make(map[string]core.FinancialSummary),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) ListEntries(_ context.Context, userID string, from, to *core.Date) ([]core.FinancialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialEntry, 0)
	for k, e := range s.entries {
		if k.user != userID {
			continue
		}
		if from != nil && e.Date.Before(from.Time) {
			continue
		}
		if to != nil && !e.Date.Before(to.Time) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, userID string, date core.Date) (core.FinancialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryKey{userID, date.String()}]
	if !ok {
		return core.FinancialEntry{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) AddToEntry(_ context.Context, userID string, date core.Date, kind core.EntryKind, amount core.Money) (core.FinancialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.mergeLocked(userID, core.NewEntryInput(date, kind, amount))
	return e, nil
}

func (s *Store) UpsertEntries(_ context.Context, userID string, inputs []core.EntryInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range inputs {
		s.mergeLocked(userID, in)
	}
	return nil
}

func (s *Store) mergeLocked(userID string, in core.EntryInput) core.FinancialEntry {
	k := entryKey{userID, in.Date.String()}
	e, ok := s.entries[k]
	if !ok {
		e = core.FinancialEntry{ID: uuid.New().String(), UserID: userID, Date: in.Date}
	}
	e = e.Merge(in)
	s.entries[k] = e
	return e
}

func (s *Store) GetSummary(_ context.Context, userID string) (*core.FinancialSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[userID]
	if !ok {
		return nil, nil
	}
	return &sum, nil
}

func (s *Store) SetBankroll(_ context.Context, userID string, amount core.Money) (core.FinancialSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := core.FinancialSummary{UserID: userID, Bankroll: amount}
	s.summaries[userID] = sum
	return sum, nil
}

func (s *Store) ListVerificationAccounts(_ context.Context, userID string) ([]core.VerificationAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.VerificationAccount, 0)
	for _, a := range s.verification {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) InsertVerificationAccount(_ context.Context, userID, name string) (core.VerificationAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := core.VerificationAccount{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Name:               name,
		VerificationStatus: core.StatusNotVerified,
		DoneStatus:         core.DoneNo,
		CreatedAt:          s.now(),
	}
	s.verification = append(s.verification, a)
	return a, nil
}

func (s *Store) UpdateVerificationAccount(_ context.Context, userID, id string, patch core.VerificationPatch) (core.VerificationAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.verification {
		if a.ID == id && a.UserID == userID {
			s.verification[i] = patch.Apply(a)
			return s.verification[i], nil
		}
	}
	return core.VerificationAccount{}, fmt.Errorf("verification account %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListBettingAccounts(_ context.Context, userID string) ([]core.BettingAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BettingAccount, 0)
	for i := len(s.accounts) - 1; i >= 0; i-- {
		if s.accounts[i].UserID == userID {
			out = append(out, s.accounts[i])
		}
	}
	return out, nil
}

func (s *Store) InsertBettingAccount(_ context.Context, userID, name string, stake core.Money) (core.BettingAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := core.BettingAccount{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		FixedStake: stake,
		CreatedAt:  s.now(),
	}
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) GetBettingAccount(_ context.Context, userID, id string) (core.BettingAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountLocked(userID, id)
}

func (s *Store) accountLocked(userID, id string) (core.BettingAccount, error) {
	for _, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return core.BettingAccount{}, fmt.Errorf("betting account %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListOperations(_ context.Context, userID, accountID string) ([]core.BettingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.accountLocked(userID, accountID); err != nil {
		return nil, err
	}
	out := make([]core.BettingOperation, 0)
	for i := len(s.operations) - 1; i >= 0; i-- {
		if s.operations[i].AccountID == accountID {
			out = append(out, s.operations[i])
		}
	}
	return out, nil
}

func (s *Store) InsertOperation(_ context.Context, userID string, op core.BettingOperation) (core.BettingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.accountLocked(userID, op.AccountID); err != nil {
		return core.BettingOperation{}, err
	}
	op.ID = uuid.New().String()
	op.CreatedAt = s.now()
	s.operations = append(s.operations, op)
	return op, nil
}

func (s *Store) GetOperation(_ context.Context, userID, id string) (core.BettingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.operationLocked(userID, id)
	if err != nil {
		return core.BettingOperation{}, err
	}
	return s.operations[i], nil
}

func (s *Store) SetOperationGain(_ context.Context, userID, id string, gain core.Money) (core.BettingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.operationLocked(userID, id)
	if err != nil {
		return core.BettingOperation{}, err
	}
	s.operations[i].Gain = gain
	return s.operations[i], nil
}

func (s *Store) operationLocked(userID, id string) (int, error) {
	for i, op := range s.operations {
		if op.ID != id {
			continue
		}
		if _, err := s.accountLocked(userID, op.AccountID); err != nil {
			break
		}
		return i, nil
	}
	return -1, fmt.Errorf("operation %s: %w", id, store.ErrNotFound)
}
