package credits

import (
	"context"
	"fmt"
	"strings"
)

type store interface {
	Get(ctx context.Context, ownerID string) (Account, error)
	Ensure(ctx context.Context, ownerID, displayName string) (Account, bool, error)
	Credit(ctx context.Context, tx Transaction) (bool, error)
	Debit(ctx context.Context, tx Transaction) (Account, error)
	SetSuspended(ctx context.Context, ownerID string, suspended bool, reason string) (bool, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	TransactionsFor(ctx context.Context, ownerID string, limit int) ([]Transaction, error)
	AllTransactions(ctx context.Context, limit int) ([]Transaction, error)
}

// Service manages the credit ledger via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// GetOrCreateAccount returns the owner's account, creating it with the
// initial free grant (and its initial_credits transaction) on first sight.
func (s *Service) GetOrCreateAccount(ctx context.Context, ownerID, email string) (Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Account{}, ErrNotSignedIn
	}
	acct, _, err := s.store.Ensure(ctx, ownerID, displayName(ownerID, email))
	return acct, err
}

// GrantFreeTopUp adds the fixed bonus to an existing account. Returns false
// if the owner is unknown.
func (s *Service) GrantFreeTopUp(ctx context.Context, ownerID string) (bool, error) {
	if strings.TrimSpace(ownerID) == "" {
		return false, ErrNotSignedIn
	}
	return s.store.Credit(ctx, Transaction{
		OwnerID:     ownerID,
		Amount:      FreeTopUpAmount,
		Type:        TxFreeTopUp,
		Description: "Free top-up",
	})
}

// AdminCredit adds credits on behalf of an admin. The admin identity is
// embedded in the description for auditability.
func (s *Service) AdminCredit(ctx context.Context, adminID, ownerID string, amount int, reason string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive, got %d", amount)
	}
	return s.store.Credit(ctx, Transaction{
		OwnerID:     ownerID,
		Amount:      amount,
		Type:        TxAdminAdd,
		Description: fmt.Sprintf("Admin %s: %s", adminID, reason),
	})
}

// Debit charges the owner for a service. It rejects with
// *SuspendedAccountError or *InsufficientCreditsError; the store serializes
// the check against concurrent debits for the same owner.
func (s *Service) Debit(ctx context.Context, ownerID string, amount int, serviceTag, documentRef string) (Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Account{}, ErrNotSignedIn
	}
	if amount <= 0 {
		return Account{}, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	return s.store.Debit(ctx, Transaction{
		OwnerID:     ownerID,
		Amount:      -amount,
		Type:        TxUsage,
		Description: serviceTag,
		DocumentRef: documentRef,
	})
}

// Suspend marks the account suspended with a reason; all debits are rejected
// until unsuspended. Returns false if the owner is unknown.
func (s *Service) Suspend(ctx context.Context, ownerID, reason string) (bool, error) {
	return s.store.SetSuspended(ctx, ownerID, true, reason)
}

// Unsuspend clears the suspension flag. Returns false if the owner is unknown.
func (s *Service) Unsuspend(ctx context.Context, ownerID string) (bool, error) {
	return s.store.SetSuspended(ctx, ownerID, false, "")
}

// Get returns the account without creating it.
func (s *Service) Get(ctx context.Context, ownerID string) (Account, error) {
	return s.store.Get(ctx, ownerID)
}

// ListAccounts returns all ledger accounts, for the admin console.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.ListAccounts(ctx)
}

// TransactionsFor returns the owner's most recent ledger entries, newest
// first. A non-positive limit falls back to the store default.
func (s *Service) TransactionsFor(ctx context.Context, ownerID string, limit int) ([]Transaction, error) {
	return s.store.TransactionsFor(ctx, ownerID, limit)
}

// AllTransactions returns recent ledger entries across owners, newest first.
func (s *Service) AllTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	return s.store.AllTransactions(ctx, limit)
}

// EstimateCost computes the processing charge from document size. The result
// is never below one credit.
func EstimateCost(pages, words int) int {
	cost := 10*pages + words/100 + 5
	if cost < 1 {
		cost = 1
	}
	return cost
}

// AdvisoryPerFileEstimate is the flat pre-extraction estimate used for batch
// admission checks before any file is opened.
func AdvisoryPerFileEstimate() int {
	return advisoryPerFileEstimate
}

// displayName derives a human-friendly name from the email local part,
// falling back to the raw owner ID.
func displayName(ownerID, email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return ownerID
}
