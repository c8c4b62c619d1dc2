package admin

import "errors"

var (
	ErrNotFound           = errors.New("admin account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("admin account deactivated")
)
