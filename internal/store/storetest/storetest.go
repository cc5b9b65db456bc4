// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"betledger/internal/core"
	"betledger/internal/store"
)

// Run exercises s against the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("entries merge additively", func(t *testing.T) { testEntries(t, newStore(t)) })
	t.Run("batch upsert", func(t *testing.T) { testBatch(t, newStore(t)) })
	t.Run("bankroll", func(t *testing.T) { testBankroll(t, newStore(t)) })
	t.Run("verification accounts", func(t *testing.T) { testVerification(t, newStore(t)) })
	t.Run("betting", func(t *testing.T) { testBetting(t, newStore(t)) })
}

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseISODate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return m
}

func testEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := date(t, "2024-03-15")

	if _, err := s.AddToEntry(ctx, "u1", d, core.KindProfit, money(t, "10.50")); err != nil {
		t.Fatalf("add profit: %v", err)
	}
	e, err := s.AddToEntry(ctx, "u1", d, core.KindProfit, money(t, "4.50"))
	if err != nil {
		t.Fatalf("add profit again: %v", err)
	}
	if !e.Profit.Equal(money(t, "15")) {
		t.Fatalf("profit=%s want 15", e.Profit)
	}
	if _, err := s.AddToEntry(ctx, "u1", d, core.KindWithdrawal, money(t, "3")); err != nil {
		t.Fatalf("add withdrawal: %v", err)
	}
	if _, err := s.AddToEntry(ctx, "u1", date(t, "2024-04-01"), core.KindProfit, money(t, "1")); err != nil {
		t.Fatalf("add april: %v", err)
	}
	if _, err := s.AddToEntry(ctx, "u2", d, core.KindProfit, money(t, "99")); err != nil {
		t.Fatalf("add other user: %v", err)
	}

	all, err := s.ListEntries(ctx, "u1", nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[0].Date.String() != "2024-04-01" {
		t.Fatalf("entries should be newest first, got %s", all[0].Date)
	}
	if !all[1].Profit.Equal(money(t, "15")) || !all[1].Withdrawal.Equal(money(t, "3")) {
		t.Fatalf("unexpected merged entry %+v", all[1])
	}

	from, to := core.MonthRange(2024, 2)
	march, err := s.ListEntries(ctx, "u1", &from, &to)
	if err != nil || len(march) != 1 {
		t.Fatalf("month list: %v %v", march, err)
	}

	got, err := s.GetEntry(ctx, "u1", d)
	if err != nil || !got.Withdrawal.Equal(money(t, "3")) {
		t.Fatalf("get entry: %+v %v", got, err)
	}
	if _, err := s.GetEntry(ctx, "u1", date(t, "2020-01-01")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testBatch(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := date(t, "2024-05-01")
	if _, err := s.AddToEntry(ctx, "u1", d, core.KindProfit, money(t, "5")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := s.UpsertEntries(ctx, "u1", []core.EntryInput{
		{Date: d, Profit: money(t, "2"), Withdrawal: money(t, "1")},
		{Date: date(t, "2024-05-02"), Profit: money(t, "7")},
		{Date: d, Profit: money(t, "3")},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	e, err := s.GetEntry(ctx, "u1", d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !e.Profit.Equal(money(t, "10")) || !e.Withdrawal.Equal(money(t, "1")) {
		t.Fatalf("unexpected entry %+v", e)
	}
	all, _ := s.ListEntries(ctx, "u1", nil, nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}

func testBankroll(t *testing.T, s store.Store) {
	ctx := context.Background()
	sum, err := s.GetSummary(ctx, "u1")
	if err != nil || sum != nil {
		t.Fatalf("expected no summary, got %+v %v", sum, err)
	}
	if _, err := s.SetBankroll(ctx, "u1", money(t, "100")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.SetBankroll(ctx, "u1", money(t, "-20.5")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	sum, err = s.GetSummary(ctx, "u1")
	if err != nil || sum == nil || !sum.Bankroll.Equal(money(t, "-20.5")) {
		t.Fatalf("bankroll should be replaced, got %+v %v", sum, err)
	}
	if other, _ := s.GetSummary(ctx, "u2"); other != nil {
		t.Fatalf("summary leaked across users: %+v", other)
	}
}

func testVerification(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.InsertVerificationAccount(ctx, "u1", "First")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if a.ID == "" || a.VerificationStatus != core.StatusNotVerified || a.DoneStatus != core.DoneNo || a.IsDeleted {
		t.Fatalf("unexpected defaults %+v", a)
	}
	if _, err := s.InsertVerificationAccount(ctx, "u1", "Second"); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	pending := core.StatusPending
	deleted := true
	upd, err := s.UpdateVerificationAccount(ctx, "u1", a.ID, core.VerificationPatch{VerificationStatus: &pending, IsDeleted: &deleted})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.VerificationStatus != core.StatusPending || !upd.IsDeleted || upd.Name != "First" {
		t.Fatalf("unexpected update %+v", upd)
	}

	list, err := s.ListVerificationAccounts(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].Name != "First" || !list[0].IsDeleted {
		t.Fatalf("list should be oldest first and include deleted rows: %+v", list)
	}

	if _, err := s.UpdateVerificationAccount(ctx, "u2", a.ID, core.VerificationPatch{IsDeleted: &deleted}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("other user update: expected ErrNotFound, got %v", err)
	}
}

func testBetting(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.InsertBettingAccount(ctx, "u1", "Book A", money(t, "10"))
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	second, err := s.InsertBettingAccount(ctx, "u1", "Book B", money(t, "2.5"))
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}

	accounts, err := s.ListBettingAccounts(ctx, "u1")
	if err != nil || len(accounts) != 2 {
		t.Fatalf("list accounts: %v %v", accounts, err)
	}
	if accounts[0].ID != second.ID {
		t.Fatalf("accounts should be newest first")
	}
	got, err := s.GetBettingAccount(ctx, "u1", first.ID)
	if err != nil || !got.FixedStake.Equal(money(t, "10")) {
		t.Fatalf("get account: %+v %v", got, err)
	}
	if _, err := s.GetBettingAccount(ctx, "u2", first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}

	op1, err := s.InsertOperation(ctx, "u1", core.BettingOperation{AccountID: first.ID, Orbit: money(t, "5"), Gain: money(t, "20"), BetType: core.BetStandard})
	if err != nil {
		t.Fatalf("insert op: %v", err)
	}
	op2, err := s.InsertOperation(ctx, "u1", core.BettingOperation{AccountID: first.ID, Orbit: money(t, "5"), Gain: money(t, "3"), BetType: core.BetFreebet})
	if err != nil {
		t.Fatalf("insert op: %v", err)
	}
	if _, err := s.InsertOperation(ctx, "u2", core.BettingOperation{AccountID: first.ID, BetType: core.BetStandard}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("insert into foreign account: expected ErrNotFound, got %v", err)
	}

	ops, err := s.ListOperations(ctx, "u1", first.ID)
	if err != nil || len(ops) != 2 {
		t.Fatalf("list ops: %v %v", ops, err)
	}
	if ops[0].ID != op2.ID || ops[0].BetType != core.BetFreebet {
		t.Fatalf("operations should be newest first: %+v", ops)
	}

	upd, err := s.SetOperationGain(ctx, "u1", op1.ID, money(t, "15"))
	if err != nil || !upd.Gain.Equal(money(t, "15")) {
		t.Fatalf("set gain: %+v %v", upd, err)
	}
	fetched, err := s.GetOperation(ctx, "u1", op1.ID)
	if err != nil || !fetched.Gain.Equal(money(t, "15")) || fetched.AccountID != first.ID {
		t.Fatalf("get op: %+v %v", fetched, err)
	}
	if _, err := s.GetOperation(ctx, "u2", op1.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get foreign op: expected ErrNotFound, got %v", err)
	}
}
