package credits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed ledger store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

var _ store = (*pgStore)(nil)

func (s *pgStore) Get(ctx context.Context, ownerID string) (Account, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT owner_id, display_name, balance, suspended, suspension_reason, suspended_at, created_at, updated_at
FROM credit_accounts WHERE owner_id = $1`, ownerID)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return acct, err
}

func (s *pgStore) Ensure(ctx context.Context, ownerID, displayName string) (Account, bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
SELECT owner_id, display_name, balance, suspended, suspension_reason, suspended_at, created_at, updated_at
FROM credit_accounts WHERE owner_id = $1 FOR UPDATE`, ownerID)
	acct, err := scanAccount(row)
	if err == nil {
		if err = tx.Commit(); err != nil {
			return Account{}, false, err
		}
		return acct, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, err
	}

	now := time.Now().UTC()
	acct = Account{
		OwnerID:     ownerID,
		DisplayName: displayName,
		Balance:     InitialCredits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO credit_accounts (owner_id, display_name, balance, suspended, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, $4, $4)`, ownerID, displayName, InitialCredits, now); err != nil {
		return Account{}, false, err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO credit_transactions (owner_id, display_name, amount, tx_type, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		ownerID, displayName, InitialCredits, TxInitialCredits, "Initial free credits", now); err != nil {
		return Account{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return Account{}, false, err
	}
	return acct, true, nil
}

func (s *pgStore) Credit(ctx context.Context, entry Transaction) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var display string
	row := tx.QueryRowContext(ctx, `
SELECT display_name FROM credit_accounts WHERE owner_id = $1 FOR UPDATE`, entry.OwnerID)
	if err = row.Scan(&display); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
			tx.Rollback()
			return false, nil
		}
		return false, err
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `
UPDATE credit_accounts SET balance = balance + $1, updated_at = $2 WHERE owner_id = $3`,
		entry.Amount, now, entry.OwnerID); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO credit_transactions (owner_id, display_name, amount, tx_type, description, document_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.OwnerID, display, entry.Amount, entry.Type, entry.Description, nullString(entry.DocumentRef), now); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Debit locks the account row so concurrent debits for the same owner
// serialize on the balance check.
func (s *pgStore) Debit(ctx context.Context, entry Transaction) (Account, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
SELECT owner_id, display_name, balance, suspended, suspension_reason, suspended_at, created_at, updated_at
FROM credit_accounts WHERE owner_id = $1 FOR UPDATE`, entry.OwnerID)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrAccountNotFound
		}
		return Account{}, err
	}

	required := -entry.Amount
	if acct.Suspended {
		err = &SuspendedAccountError{Reason: acct.SuspensionReason}
		return Account{}, err
	}
	if acct.Balance < required {
		err = &InsufficientCreditsError{Available: acct.Balance, Required: required}
		return Account{}, err
	}

	now := time.Now().UTC()
	acct.Balance += entry.Amount
	acct.UpdatedAt = now
	if _, err = tx.ExecContext(ctx, `
UPDATE credit_accounts SET balance = $1, updated_at = $2 WHERE owner_id = $3`,
		acct.Balance, now, entry.OwnerID); err != nil {
		return Account{}, err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO credit_transactions (owner_id, display_name, amount, tx_type, description, document_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.OwnerID, acct.DisplayName, entry.Amount, entry.Type, entry.Description, nullString(entry.DocumentRef), now); err != nil {
		return Account{}, err
	}
	if err = tx.Commit(); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (s *pgStore) SetSuspended(ctx context.Context, ownerID string, suspended bool, reason string) (bool, error) {
	now := time.Now().UTC()
	var res sql.Result
	var err error
	if suspended {
		res, err = s.DB.ExecContext(ctx, `
UPDATE credit_accounts SET suspended = TRUE, suspension_reason = $1, suspended_at = $2, updated_at = $2
WHERE owner_id = $3`, reason, now, ownerID)
	} else {
		res, err = s.DB.ExecContext(ctx, `
UPDATE credit_accounts SET suspended = FALSE, suspension_reason = NULL, suspended_at = NULL, updated_at = $1
WHERE owner_id = $2`, now, ownerID)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *pgStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT owner_id, display_name, balance, suspended, suspension_reason, suspended_at, created_at, updated_at
FROM credit_accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func (s *pgStore) TransactionsFor(ctx context.Context, ownerID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, owner_id, display_name, amount, tx_type, description, document_ref, created_at
FROM credit_transactions WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *pgStore) AllTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, owner_id, display_name, amount, tx_type, description, document_ref, created_at
FROM credit_transactions ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var acct Account
	var reason sql.NullString
	var suspendedAt sql.NullTime
	err := row.Scan(&acct.OwnerID, &acct.DisplayName, &acct.Balance, &acct.Suspended,
		&reason, &suspendedAt, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	if reason.Valid {
		acct.SuspensionReason = reason.String
	}
	if suspendedAt.Valid {
		t := suspendedAt.Time
		acct.SuspendedAt = &t
	}
	return acct, nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		var t Transaction
		var docRef sql.NullString
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.DisplayName, &t.Amount, &t.Type,
			&t.Description, &docRef, &t.CreatedAt); err != nil {
			return nil, err
		}
		if docRef.Valid {
			t.DocumentRef = docRef.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
