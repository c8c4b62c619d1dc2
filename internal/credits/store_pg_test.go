package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func accountColumns() []string {
	return []string{"owner_id", "display_name", "balance", "suspended", "suspension_reason", "suspended_at", "created_at", "updated_at"}
}

func TestPGStoreDebitLocksRowAndAppendsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM credit_accounts WHERE owner_id = \\$1 FOR UPDATE").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("owner-1", "owner", 100, false, nil, nil, now, now))
	mock.ExpectExec("UPDATE credit_accounts SET balance").
		WithArgs(70, sqlmock.AnyArg(), "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO credit_transactions").
		WithArgs("owner-1", "owner", -30, TxUsage, "document_processing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	acct, err := store.Debit(context.Background(), Transaction{
		OwnerID:     "owner-1",
		Amount:      -30,
		Type:        TxUsage,
		Description: "document_processing",
		DocumentRef: "hash-1",
	})
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if acct.Balance != 70 {
		t.Fatalf("expected balance 70, got %d", acct.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreDebitInsufficientRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM credit_accounts WHERE owner_id = \\$1 FOR UPDATE").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("owner-1", "owner", 5, false, nil, nil, now, now))
	mock.ExpectRollback()

	store := NewPGStore(db)
	_, err = store.Debit(context.Background(), Transaction{OwnerID: "owner-1", Amount: -10, Type: TxUsage})
	var insufficient *InsufficientCreditsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if insufficient.Available != 5 || insufficient.Required != 10 {
		t.Fatalf("unexpected fields: %+v", insufficient)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreDebitSuspendedRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM credit_accounts WHERE owner_id = \\$1 FOR UPDATE").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("owner-1", "owner", 500, true, "fraud", now, now, now))
	mock.ExpectRollback()

	store := NewPGStore(db)
	_, err = store.Debit(context.Background(), Transaction{OwnerID: "owner-1", Amount: -10, Type: TxUsage})
	var suspended *SuspendedAccountError
	if !errors.As(err, &suspended) {
		t.Fatalf("expected SuspendedAccountError, got %v", err)
	}
	if suspended.Reason != "fraud" {
		t.Fatalf("unexpected reason: %q", suspended.Reason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreEnsureCreatesAccountAndInitialTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM credit_accounts WHERE owner_id = \\$1 FOR UPDATE").
		WithArgs("new-owner").
		WillReturnRows(sqlmock.NewRows(accountColumns()))
	mock.ExpectExec("INSERT INTO credit_accounts").
		WithArgs("new-owner", "new", InitialCredits, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO credit_transactions").
		WithArgs("new-owner", "new", InitialCredits, TxInitialCredits, "Initial free credits", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	acct, created, err := store.Ensure(context.Background(), "new-owner", "new")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}
	if acct.Balance != InitialCredits {
		t.Fatalf("expected balance %d, got %d", InitialCredits, acct.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreSetSuspendedUnknownOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE credit_accounts SET suspended = TRUE").
		WithArgs("fraud", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	ok, err := store.SetSuspended(context.Background(), "ghost", true, "fraud")
	if err != nil {
		t.Fatalf("SetSuspended: %v", err)
	}
	if ok {
		t.Fatal("expected false for unknown owner")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
