package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const adminColumns = "id, email, password_hash, role, active, created_at"

// PGRepo stores admin accounts in Postgres.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_accounts WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))

	var acct Account
	err := row.Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.Role, &acct.Active, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("get admin by email: %w", err)
	}
	return acct, nil
}

func (r *PGRepo) Create(ctx context.Context, acct Account) (Account, error) {
	if acct.Role == "" {
		acct.Role = "admin"
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO admin_accounts (email, password_hash, role, active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		strings.TrimSpace(acct.Email), acct.PasswordHash, acct.Role, acct.Active)

	if err := row.Scan(&acct.ID, &acct.CreatedAt); err != nil {
		return Account{}, fmt.Errorf("create admin: %w", err)
	}
	return acct, nil
}
