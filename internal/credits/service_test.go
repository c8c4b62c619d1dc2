package credits

import (
	"context"
	"errors"
	"testing"
)

func TestGetOrCreateAccountGrantsInitialCredits(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	acct, err := svc.GetOrCreateAccount(ctx, "a@x.com", "a@x.com")
	if err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	if acct.Balance != 100 {
		t.Fatalf("expected balance 100, got %d", acct.Balance)
	}
	if acct.DisplayName != "a" {
		t.Fatalf("expected display name from email local part, got %q", acct.DisplayName)
	}

	txs, err := svc.TransactionsFor(ctx, "a@x.com", 0)
	if err != nil {
		t.Fatalf("TransactionsFor: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txs))
	}
	if txs[0].Type != TxInitialCredits || txs[0].Amount != 100 {
		t.Fatalf("unexpected initial transaction: %+v", txs[0])
	}

	// Second call must not re-grant.
	again, err := svc.GetOrCreateAccount(ctx, "a@x.com", "a@x.com")
	if err != nil {
		t.Fatalf("GetOrCreateAccount again: %v", err)
	}
	if again.Balance != 100 {
		t.Fatalf("expected balance unchanged, got %d", again.Balance)
	}
	txs, _ = svc.TransactionsFor(ctx, "a@x.com", 0)
	if len(txs) != 1 {
		t.Fatalf("expected one transaction after repeat call, got %d", len(txs))
	}
}

func TestDebitInsufficientCreditsLeavesBalanceUnchanged(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	owner := "low@x.com"

	if _, err := svc.GetOrCreateAccount(ctx, owner, owner); err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	// Drain down to 5.
	if _, err := svc.Debit(ctx, owner, 95, "document_processing", ""); err != nil {
		t.Fatalf("Debit 95: %v", err)
	}

	_, err := svc.Debit(ctx, owner, 10, "document_processing", "")
	var insufficient *InsufficientCreditsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if insufficient.Available != 5 || insufficient.Required != 10 {
		t.Fatalf("unexpected error fields: %+v", insufficient)
	}
	if insufficient.Error() != "Insufficient credits. Available: 5, Required: 10" {
		t.Fatalf("unexpected message: %q", insufficient.Error())
	}

	acct, err := svc.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.Balance != 5 {
		t.Fatalf("expected balance 5 after rejected debit, got %d", acct.Balance)
	}
}

func TestDebitSuspendedAccountRejectedRegardlessOfBalance(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	owner := "fraudster@x.com"

	if _, err := svc.GetOrCreateAccount(ctx, owner, owner); err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	ok, err := svc.Suspend(ctx, owner, "fraud")
	if err != nil || !ok {
		t.Fatalf("Suspend: ok=%v err=%v", ok, err)
	}

	_, err = svc.Debit(ctx, owner, 1, "document_processing", "")
	var suspended *SuspendedAccountError
	if !errors.As(err, &suspended) {
		t.Fatalf("expected SuspendedAccountError, got %v", err)
	}
	if suspended.Error() != "Account suspended: fraud" {
		t.Fatalf("unexpected message: %q", suspended.Error())
	}

	acct, _ := svc.Get(ctx, owner)
	if acct.Balance != 100 {
		t.Fatalf("expected balance unchanged, got %d", acct.Balance)
	}

	// Unsuspend restores debitability.
	if ok, err := svc.Unsuspend(ctx, owner); err != nil || !ok {
		t.Fatalf("Unsuspend: ok=%v err=%v", ok, err)
	}
	if _, err := svc.Debit(ctx, owner, 1, "document_processing", ""); err != nil {
		t.Fatalf("Debit after unsuspend: %v", err)
	}
}

func TestLedgerSumEqualsBalance(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	owner := "sum@x.com"

	if _, err := svc.GetOrCreateAccount(ctx, owner, owner); err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	if ok, err := svc.GrantFreeTopUp(ctx, owner); err != nil || !ok {
		t.Fatalf("GrantFreeTopUp: ok=%v err=%v", ok, err)
	}
	if _, err := svc.AdminCredit(ctx, "admin-1", owner, 50, "goodwill"); err != nil {
		t.Fatalf("AdminCredit: %v", err)
	}
	if _, err := svc.Debit(ctx, owner, 37, "document_processing", "hash-1"); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	acct, err := svc.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	txs, err := svc.TransactionsFor(ctx, owner, 0)
	if err != nil {
		t.Fatalf("TransactionsFor: %v", err)
	}
	sum := 0
	for _, tx := range txs {
		sum += tx.Amount
	}
	if sum != acct.Balance {
		t.Fatalf("transaction sum %d != balance %d", sum, acct.Balance)
	}
	if acct.Balance != 100+100+50-37 {
		t.Fatalf("unexpected balance %d", acct.Balance)
	}
}

func TestAdminCreditEmbedsAdminIdentity(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	owner := "audit@x.com"

	if _, err := svc.GetOrCreateAccount(ctx, owner, owner); err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	if _, err := svc.AdminCredit(ctx, "admin-7", owner, 25, "refund"); err != nil {
		t.Fatalf("AdminCredit: %v", err)
	}

	txs, _ := svc.TransactionsFor(ctx, owner, 0)
	if len(txs) == 0 {
		t.Fatal("expected transactions")
	}
	latest := txs[0]
	if latest.Type != TxAdminAdd {
		t.Fatalf("expected admin_add, got %q", latest.Type)
	}
	if latest.Description != "Admin admin-7: refund" {
		t.Fatalf("unexpected description: %q", latest.Description)
	}
}

func TestAdminCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService()
	if _, err := svc.AdminCredit(context.Background(), "admin-1", "x@x.com", 0, "nope"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := svc.AdminCredit(context.Background(), "admin-1", "x@x.com", -5, "nope"); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestTransactionsForHonorsLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	owner := "limited@x.com"

	if _, err := svc.GetOrCreateAccount(ctx, owner, owner); err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Debit(ctx, owner, 1, "document_processing", ""); err != nil {
			t.Fatalf("Debit %d: %v", i, err)
		}
	}

	txs, err := svc.TransactionsFor(ctx, owner, 3)
	if err != nil {
		t.Fatalf("TransactionsFor: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.Type != TxUsage {
			t.Fatalf("expected newest entries first, got %q", tx.Type)
		}
	}
}

func TestGrantFreeTopUpUnknownOwner(t *testing.T) {
	svc := NewService()
	ok, err := svc.GrantFreeTopUp(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("GrantFreeTopUp: %v", err)
	}
	if ok {
		t.Fatal("expected false for unknown owner")
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost(3, 1200); got != 10*3+12+5 {
		t.Fatalf("EstimateCost(3,1200) = %d", got)
	}
	if got := EstimateCost(0, 0); got != 5 {
		t.Fatalf("EstimateCost(0,0) = %d", got)
	}
	if got := EstimateCost(-1, 0); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}
