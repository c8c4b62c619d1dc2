package credits

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	ledger   []Transaction
	nextID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[string]Account),
		nextID:   1,
	}
}

var _ store = (*memoryStore)(nil)

func (s *memoryStore) Get(ctx context.Context, ownerID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[ownerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (s *memoryStore) Ensure(ctx context.Context, ownerID, displayName string) (Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[ownerID]; ok {
		return acct, false, nil
	}
	now := time.Now().UTC()
	acct := Account{
		OwnerID:     ownerID,
		DisplayName: displayName,
		Balance:     InitialCredits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.accounts[ownerID] = acct
	s.append(Transaction{
		OwnerID:     ownerID,
		DisplayName: displayName,
		Amount:      InitialCredits,
		Type:        TxInitialCredits,
		Description: "Initial free credits",
		CreatedAt:   now,
	})
	return acct, true, nil
}

func (s *memoryStore) Credit(ctx context.Context, entry Transaction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[entry.OwnerID]
	if !ok {
		return false, nil
	}
	now := time.Now().UTC()
	acct.Balance += entry.Amount
	acct.UpdatedAt = now
	s.accounts[entry.OwnerID] = acct
	entry.DisplayName = acct.DisplayName
	entry.CreatedAt = now
	s.append(entry)
	return true, nil
}

func (s *memoryStore) Debit(ctx context.Context, entry Transaction) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[entry.OwnerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	required := -entry.Amount
	if acct.Suspended {
		return Account{}, &SuspendedAccountError{Reason: acct.SuspensionReason}
	}
	if acct.Balance < required {
		return Account{}, &InsufficientCreditsError{Available: acct.Balance, Required: required}
	}
	now := time.Now().UTC()
	acct.Balance += entry.Amount
	acct.UpdatedAt = now
	s.accounts[entry.OwnerID] = acct
	entry.DisplayName = acct.DisplayName
	entry.CreatedAt = now
	s.append(entry)
	return acct, nil
}

func (s *memoryStore) SetSuspended(ctx context.Context, ownerID string, suspended bool, reason string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[ownerID]
	if !ok {
		return false, nil
	}
	now := time.Now().UTC()
	acct.Suspended = suspended
	acct.UpdatedAt = now
	if suspended {
		acct.SuspensionReason = reason
		acct.SuspendedAt = &now
	} else {
		acct.SuspensionReason = ""
		acct.SuspendedAt = nil
	}
	s.accounts[ownerID] = acct
	return true, nil
}

func (s *memoryStore) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) TransactionsFor(ctx context.Context, ownerID string, limit int) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for i := len(s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if s.ledger[i].OwnerID == ownerID {
			out = append(out, s.ledger[i])
		}
	}
	return out, nil
}

func (s *memoryStore) AllTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for i := len(s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.ledger[i])
	}
	return out, nil
}

// append assumes the caller holds the write lock.
func (s *memoryStore) append(entry Transaction) {
	entry.ID = s.nextID
	s.nextID++
	s.ledger = append(s.ledger, entry)
}
