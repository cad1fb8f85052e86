package entity

import "time"

// RefreshToken is a long-lived token. Token is the HMAC of the value handed
// to the client; the plain value is never stored.
type RefreshToken struct {
	ID           int64
	UserID       int64
	Token        string
	ExpiresAt    time.Time
	Revoked      bool
	ReplacedByID *int64
}

// Rotated reports whether the token was exchanged for a newer one.
func (t RefreshToken) Rotated() bool {
	return t.ReplacedByID != nil
}

// UserRefreshToken joins a refresh token with its owner.
type UserRefreshToken struct {
	RefreshToken
	Username string
}

type RotateRefreshToken struct {
	OldID        int64
	NewID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
}
