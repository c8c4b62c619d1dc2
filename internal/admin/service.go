package admin

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"docclassifier-backend/internal/shared/auth"
)

// Service authenticates administrators and issues admin tokens.
type Service struct {
	repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Login validates an admin's credentials and returns a signed token carrying
// the admin claim. Deactivated accounts are rejected after the password
// check.
func (s *Service) Login(ctx context.Context, email, password string) (string, Account, error) {
	acct, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return "", Account{}, ErrInvalidCredentials
		}
		return "", Account{}, err
	}
	if !verifyPassword(acct.PasswordHash, password) {
		return "", Account{}, ErrInvalidCredentials
	}
	if !acct.Active {
		return "", Account{}, ErrInactive
	}

	token, err := auth.SignJWT(auth.Claims{
		Sub:   acct.Email,
		Email: acct.Email,
		Name:  acct.Role,
		Admin: true,
	})
	if err != nil {
		return "", Account{}, err
	}
	return token, acct, nil
}

// Provision creates an admin account with the given password, used by the
// migrate command to seed the first admin.
func (s *Service) Provision(ctx context.Context, email, password, role string) (Account, error) {
	return s.repo.Create(ctx, Account{
		Email:        strings.TrimSpace(email),
		PasswordHash: HashPassword(password),
		Role:         role,
		Active:       true,
	})
}

// HashPassword returns the hex sha256 digest stored for admin passwords.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func verifyPassword(storedHash, password string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}
