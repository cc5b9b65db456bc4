package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"betledger/internal/core"
	"betledger/internal/log"
)

const verificationColumns = "id, user_id, name, verification_status, done_status, is_deleted, created_at"

func scanVerification(row rowScanner) (core.VerificationAccount, error) {
	var (
		a       core.VerificationAccount
		created timestamp
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.VerificationStatus, &a.DoneStatus, &a.IsDeleted, &created)
	a.CreatedAt = created.Time
	return a, err
}

// ListVerificationAccounts implements store.VerificationStore
func (r *Repository) ListVerificationAccounts(ctx context.Context, userID string) ([]core.VerificationAccount, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		"SELECT "+verificationColumns+" FROM verification_accounts WHERE user_id = ? ORDER BY created_at ASC"), userID)
	if err != nil {
		return nil, fmt.Errorf("list verification accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]core.VerificationAccount, 0)
	for rows.Next() {
		a, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verification accounts: %w", err)
	}
	return accounts, nil
}

// InsertVerificationAccount implements store.VerificationStore
func (r *Repository) InsertVerificationAccount(ctx context.Context, userID, name string) (core.VerificationAccount, error) {
	created := r.now()
	a := core.VerificationAccount{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Name:               name,
		VerificationStatus: core.StatusNotVerified,
		DoneStatus:         core.DoneNo,
		CreatedAt:          created.Time,
	}
	_, err := r.db.ExecContext(ctx, r.rebind(
		"INSERT INTO verification_accounts ("+verificationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		a.ID, a.UserID, a.Name, string(a.VerificationStatus), string(a.DoneStatus), a.IsDeleted, created)
	if err != nil {
		return core.VerificationAccount{}, fmt.Errorf("insert verification account: %w", err)
	}
	r.logger.DebugContext(ctx, "Verification account created", log.FieldUserID, userID, log.FieldAccountID, a.ID)
	return a, nil
}

// UpdateVerificationAccount implements store.VerificationStore
func (r *Repository) UpdateVerificationAccount(ctx context.Context, userID, id string, patch core.VerificationPatch) (core.VerificationAccount, error) {
	var updated core.VerificationAccount
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanVerification(tx.QueryRowContext(ctx, r.rebind(
			"SELECT "+verificationColumns+" FROM verification_accounts WHERE id = ? AND user_id = ?"), id, userID))
		if err != nil {
			return notFound("verification account", id, err)
		}
		updated = patch.Apply(current)
		_, err = tx.ExecContext(ctx, r.rebind(`
			UPDATE verification_accounts
			SET name = ?, verification_status = ?, done_status = ?, is_deleted = ?
			WHERE id = ? AND user_id = ?`),
			updated.Name, string(updated.VerificationStatus), string(updated.DoneStatus), updated.IsDeleted, id, userID)
		if err != nil {
			return fmt.Errorf("update verification account %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.VerificationAccount{}, err
	}
	return updated, nil
}

const bettingAccountColumns = "id, user_id, name, fixed_stake_value, created_at"

func scanBettingAccount(row rowScanner) (core.BettingAccount, error) {
	var (
		a       core.BettingAccount
		created timestamp
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.FixedStake, &created)
	a.CreatedAt = created.Time
	return a, err
}

// ListBettingAccounts implements store.BettingStore
func (r *Repository) ListBettingAccounts(ctx context.Context, userID string) ([]core.BettingAccount, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		"SELECT "+bettingAccountColumns+" FROM betting_accounts WHERE user_id = ? ORDER BY created_at DESC"), userID)
	if err != nil {
		return nil, fmt.Errorf("list betting accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]core.BettingAccount, 0)
	for rows.Next() {
		a, err := scanBettingAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan betting account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list betting accounts: %w", err)
	}
	return accounts, nil
}

// InsertBettingAccount implements store.BettingStore
func (r *Repository) InsertBettingAccount(ctx context.Context, userID, name string, stake core.Money) (core.BettingAccount, error) {
	created := r.now()
	a := core.BettingAccount{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		FixedStake: stake,
		CreatedAt:  created.Time,
	}
	_, err := r.db.ExecContext(ctx, r.rebind(
		"INSERT INTO betting_accounts ("+bettingAccountColumns+") VALUES (?, ?, ?, ?, ?)"),
		a.ID, a.UserID, a.Name, a.FixedStake, created)
	if err != nil {
		return core.BettingAccount{}, fmt.Errorf("insert betting account: %w", err)
	}
	r.logger.DebugContext(ctx, "Betting account created", log.FieldUserID, userID, log.FieldAccountID, a.ID)
	return a, nil
}

// GetBettingAccount implements store.BettingStore
func (r *Repository) GetBettingAccount(ctx context.Context, userID, id string) (core.BettingAccount, error) {
	a, err := scanBettingAccount(r.db.QueryRowContext(ctx, r.rebind(
		"SELECT "+bettingAccountColumns+" FROM betting_accounts WHERE id = ? AND user_id = ?"), id, userID))
	if err != nil {
		return core.BettingAccount{}, notFound("betting account", id, err)
	}
	return a, nil
}

const operationColumns = "o.id, o.account_id, o.orbit_value, o.gain_value, o.bet_type, o.created_at"

func scanOperation(row rowScanner) (core.BettingOperation, error) {
	var (
		op      core.BettingOperation
		created timestamp
	)
	err := row.Scan(&op.ID, &op.AccountID, &op.Orbit, &op.Gain, &op.BetType, &created)
	op.CreatedAt = created.Time
	return op, err
}

// ListOperations implements store.BettingStore
func (r *Repository) ListOperations(ctx context.Context, userID, accountID string) ([]core.BettingOperation, error) {
	if _, err := r.GetBettingAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(
		"SELECT "+operationColumns+" FROM betting_operations o WHERE o.account_id = ? ORDER BY o.created_at DESC"), accountID)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	ops := make([]core.BettingOperation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

// InsertOperation implements store.BettingStore
func (r *Repository) InsertOperation(ctx context.Context, userID string, op core.BettingOperation) (core.BettingOperation, error) {
	if _, err := r.GetBettingAccount(ctx, userID, op.AccountID); err != nil {
		return core.BettingOperation{}, err
	}
	created := r.now()
	op.ID = uuid.New().String()
	op.CreatedAt = created.Time
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO betting_operations (id, account_id, orbit_value, gain_value, bet_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		op.ID, op.AccountID, op.Orbit, op.Gain, string(op.BetType), created)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("insert operation: %w", err)
	}
	r.logger.DebugContext(ctx, "Operation created", log.FieldUserID, userID, log.FieldAccountID, op.AccountID)
	return op, nil
}

// GetOperation implements store.BettingStore
func (r *Repository) GetOperation(ctx context.Context, userID, id string) (core.BettingOperation, error) {
	op, err := scanOperation(r.db.QueryRowContext(ctx, r.rebind(`
		SELECT `+operationColumns+`
		FROM betting_operations o
		JOIN betting_accounts a ON a.id = o.account_id
		WHERE o.id = ? AND a.user_id = ?`), id, userID))
	if err != nil {
		return core.BettingOperation{}, notFound("operation", id, err)
	}
	return op, nil
}

// SetOperationGain implements store.BettingStore
func (r *Repository) SetOperationGain(ctx context.Context, userID, id string, gain core.Money) (core.BettingOperation, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`
		UPDATE betting_operations SET gain_value = ?
		WHERE id = ? AND account_id IN (SELECT id FROM betting_accounts WHERE user_id = ?)`),
		gain, id, userID)
	if err != nil {
		return core.BettingOperation{}, fmt.Errorf("update operation %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.BettingOperation{}, notFound("operation", id, sql.ErrNoRows)
	}
	return r.GetOperation(ctx, userID, id)
}
