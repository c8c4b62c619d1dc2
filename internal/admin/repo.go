package admin

import "context"

// Repo defines persistence for admin accounts.
type Repo interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, acct Account) (Account, error)
}
