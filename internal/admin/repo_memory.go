package admin

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local runs and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	byEmail map[string]Account
	nextID  int64
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byEmail: make(map[string]Account), nextID: 1}
}

var _ Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *MemoryRepo) Create(ctx context.Context, acct Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acct.Role == "" {
		acct.Role = "admin"
	}
	acct.ID = r.nextID
	r.nextID++
	acct.CreatedAt = time.Now().UTC()
	r.byEmail[strings.ToLower(strings.TrimSpace(acct.Email))] = acct
	return acct, nil
}
