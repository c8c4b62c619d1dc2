package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "active", "created_at"}).
		AddRow(int64(3), "ops@example.com", HashPassword("pw"), "admin", true, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM admin_accounts WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ops@example.com").
		WillReturnRows(rows)

	acct, err := repo.GetByEmail(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if acct.ID != 3 || !acct.Active || acct.Role != "admin" {
		t.Fatalf("unexpected account %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM admin_accounts`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "active", "created_at"}))

	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	mock.ExpectQuery(`INSERT INTO admin_accounts`).
		WithArgs("ops@example.com", HashPassword("pw"), "admin", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	acct, err := repo.Create(context.Background(), Account{
		Email:        "ops@example.com",
		PasswordHash: HashPassword("pw"),
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if acct.ID != 1 || acct.Role != "admin" {
		t.Fatalf("unexpected account %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
