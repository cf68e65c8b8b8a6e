package models

import "time"

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// RefreshToken is the persisted half of a login session. Only the sha256
// digest of the opaque token is stored; the raw value exists client-side only.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash []byte
	Device    string
	IPAddress string
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still mint new access tokens.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
