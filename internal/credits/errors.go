package credits

import (
	"errors"
	"fmt"
)

// ErrNotSignedIn indicates a chargeable operation was attempted without identity.
var ErrNotSignedIn = errors.New("not signed in")

// ErrAccountNotFound indicates no ledger account exists for the owner.
var ErrAccountNotFound = errors.New("credit account not found")

// SuspendedAccountError rejects debits against a suspended account.
type SuspendedAccountError struct {
	Reason string
}

func (e *SuspendedAccountError) Error() string {
	return fmt.Sprintf("Account suspended: %s", e.Reason)
}

// InsufficientCreditsError rejects debits that exceed the available balance.
type InsufficientCreditsError struct {
	Available int
	Required  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("Insufficient credits. Available: %d, Required: %d", e.Available, e.Required)
}
