package credits

import "time"

// Transaction types recorded in the ledger.
const (
	TxInitialCredits = "initial_credits"
	TxFreeTopUp      = "free_topup"
	TxAdminAdd       = "admin_add"
	TxUsage          = "usage"
)

// Account is a per-owner credit balance with suspension state. The balance is
// a cached projection; the transaction log is the source of truth.
type Account struct {
	OwnerID          string     `json:"ownerId"`
	DisplayName      string     `json:"displayName"`
	Balance          int        `json:"balance"`
	Suspended        bool       `json:"suspended"`
	SuspensionReason string     `json:"suspensionReason,omitempty"`
	SuspendedAt      *time.Time `json:"suspendedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Transaction is one append-only ledger entry. Positive amounts are credits,
// negative amounts are debits.
type Transaction struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"ownerId"`
	DisplayName string    `json:"displayName"`
	Amount      int       `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	DocumentRef string    `json:"documentRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
