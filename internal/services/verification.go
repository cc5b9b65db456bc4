package services

import (
	"context"
	"fmt"

	"betledger/internal/core"
	"betledger/internal/log"
	"betledger/internal/store"
)

// AccountList is the verification page: the filtered rows plus statistics
// over every account of the user.
type AccountList struct {
	Accounts []core.VerificationAccount `json:"accounts"`
	Stats    core.AccountStats          `json:"stats"`
}

// VerificationService tracks bookmaker accounts awaiting verification.
type VerificationService struct {
	base
	store store.VerificationStore
}

func NewVerificationService(st store.VerificationStore, opts Options) *VerificationService {
	return &VerificationService{base: newBase(opts, log.ComponentVerification), store: st}
}

// List filters the user's accounts by name and status. Stats are computed
// before filtering, deleted accounts included.
func (s *VerificationService) List(ctx context.Context, search string, filter core.AccountFilter) (AccountList, error) {
	userID, err := session(ctx)
	if err != nil {
		return AccountList{}, err
	}
	all, err := s.store.ListVerificationAccounts(ctx, userID)
	if err != nil {
		return AccountList{}, fmt.Errorf("list verification accounts: %w", err)
	}
	accounts := core.FilterAccounts(all, search, filter)
	if accounts == nil {
		accounts = []core.VerificationAccount{}
	}
	return AccountList{Accounts: accounts, Stats: core.ComputeAccountStats(all)}, nil
}

// Add creates an account with the default statuses.
func (s *VerificationService) Add(ctx context.Context, name string) (core.VerificationAccount, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.VerificationAccount{}, err
	}
	name, err = core.ValidateName(name)
	if err != nil {
		return core.VerificationAccount{}, err
	}
	account, err := s.store.InsertVerificationAccount(ctx, userID, name)
	if err != nil {
		return core.VerificationAccount{}, fmt.Errorf("add verification account: %w", err)
	}
	s.logger.InfoContext(ctx, "Verification account added", log.FieldUserID, userID, log.FieldAccountID, account.ID)
	s.invalidate(ctx, userID)
	return account, nil
}

// Update applies a partial change to one account.
func (s *VerificationService) Update(ctx context.Context, id string, patch core.VerificationPatch) (core.VerificationAccount, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.VerificationAccount{}, err
	}
	if err := patch.Validate(); err != nil {
		return core.VerificationAccount{}, err
	}
	account, err := s.store.UpdateVerificationAccount(ctx, userID, id, patch)
	if err != nil {
		return core.VerificationAccount{}, fmt.Errorf("update verification account: %w", err)
	}
	s.invalidate(ctx, userID)
	return account, nil
}

// SoftDelete hides an account from the default views without removing it.
func (s *VerificationService) SoftDelete(ctx context.Context, id string) (core.VerificationAccount, error) {
	return s.setDeleted(ctx, id, true, log.OpDelete)
}

func (s *VerificationService) Restore(ctx context.Context, id string) (core.VerificationAccount, error) {
	return s.setDeleted(ctx, id, false, log.OpRestore)
}

func (s *VerificationService) setDeleted(ctx context.Context, id string, deleted bool, op string) (core.VerificationAccount, error) {
	userID, err := session(ctx)
	if err != nil {
		return core.VerificationAccount{}, err
	}
	account, err := s.store.UpdateVerificationAccount(ctx, userID, id, core.VerificationPatch{IsDeleted: &deleted})
	if err != nil {
		return core.VerificationAccount{}, fmt.Errorf("%s verification account: %w", op, err)
	}
	s.logger.InfoContext(ctx, "Verification account deleted flag changed",
		log.FieldUserID, userID, log.FieldAccountID, id, log.FieldOperation, op)
	s.invalidate(ctx, userID)
	return account, nil
}
