package auth

import "time"

// User is an account row. Accounts carry only credentials; display name and
// role live on the profile resolved after sign-in.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanSignIn reports whether the account may establish a session. Deactivated
// accounts keep their rows (and their activity attribution) but cannot log in.
func (u User) CanSignIn() bool {
	return u.IsActive
}
