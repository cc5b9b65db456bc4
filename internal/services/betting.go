package services

import (
	"context"
	"fmt"

	"betledger/internal/core"
	"betledger/internal/log"
	"betledger/internal/store"
)

// OperationTable is the operations view of one betting account.
type OperationTable struct {
	Account     core.BettingAccount `json:"account"`
	Rows        []core.OperationRow `json:"rows"`
	TotalProfit core.Money          `json:"total_profit"`
}

// BettingService manages betting accounts and the bets placed on them.
type BettingService struct {
	base
	store store.BettingStore
}

func NewBettingService(st store.BettingStore, opts Options) *BettingService {
	return &BettingService{base: newBase(opts, log.ComponentBetting), store: st}
}

// Accounts lists the user's betting accounts, newest first.
func (s *BettingService) Accounts(ctx context.Context) ([]core.BettingAccount, error) {
	userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListBettingAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list betting accounts: %w", err)
	}
	return accounts, nil
}

// CreateAccount opens an account. The fixed stake cannot change afterwards.
func (s *BettingService) CreateAccount(ctx context.Context, name string, stake core.Money) (core.BettingAccount, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.BettingAccount{}, err
	}
	name, err = core.ValidateName(name)
	if err != nil {
		return core.BettingAccount{}, err
	}
	if err := (core.BettingAccount{Name: name, FixedStake: stake}).Validate(); err != nil {
		return core.BettingAccount{}, err
	}
	account, err := s.store.InsertBettingAccount(ctx, userID, name, stake)
	if err != nil {
		return core.BettingAccount{}, fmt.Errorf("create betting account: %w", err)
	}
	s.logger.InfoContext(ctx, "Betting account created", log.FieldUserID, userID, log.FieldAccountID, account.ID)
	return account, nil
}

// Operations returns the account with its operation rows and total profit.
func (s *BettingService) Operations(ctx context.Context, accountID string) (OperationTable, error) {
	userID, err := session(ctx)
	if err != nil {
		return OperationTable{}, err
	}
	account, err := s.store.GetBettingAccount(ctx, userID, accountID)
	if err != nil {
		return OperationTable{}, fmt.Errorf("get betting account: %w", err)
	}
	ops, err := s.store.ListOperations(ctx, userID, accountID)
	if err != nil {
		return OperationTable{}, fmt.Errorf("list operations: %w", err)
	}
	return OperationTable{
		Account:     account,
		Rows:        core.OperationRows(account, ops),
		TotalProfit: core.TotalProfit(account.FixedStake, ops),
	}, nil
}

// AddOperation records a bet on the account.
func (s *BettingService) AddOperation(ctx context.Context, accountID string, orbit, gain core.Money, betType core.BetType) (core.BettingOperation, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.BettingOperation{}, err
	}
	betType, err = core.ParseBetType(string(betType))
	if err != nil {
		return core.BettingOperation{}, err
	}
	op := core.BettingOperation{AccountID: accountID, Orbit: orbit, Gain: gain, BetType: betType}
	if err := op.Validate(); err != nil {
		return core.BettingOperation{}, err
	}
	op, err = s.store.InsertOperation(ctx, userID, op)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("add operation: %w", err)
	}
	s.logger.InfoContext(ctx, "Operation added",
		log.FieldUserID, userID, log.FieldAccountID, accountID, "bet_type", string(betType))
	return op, nil
}

// MarkLost sets the operation's gain to the amount spent on it, so that its
// profit becomes zero.
func (s *BettingService) MarkLost(ctx context.Context, operationID string) (core.BettingOperation, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.BettingOperation{}, err
	}
	op, err := s.store.GetOperation(ctx, userID, operationID)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("get operation: %w", err)
	}
	account, err := s.store.GetBettingAccount(ctx, userID, op.AccountID)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("get betting account: %w", err)
	}
	lost := core.MarkLost(account.FixedStake, op)
	updated, err := s.store.SetOperationGain(ctx, userID, op.ID, lost.Gain)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("mark operation lost: %w", err)
	}
	return updated, nil
}
