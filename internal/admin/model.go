package admin

import "time"

// Account is an administrator login. Admins are provisioned out of band and
// authenticate with email and password rather than OAuth.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}
