package entity

import "time"

// User is an account. Username is the sign-in email.
type User struct {
	ID        int64
	Username  string
	Name      string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName falls back to the username when no name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Credential holds a stored PBKDF2 credential for a user.
type Credential struct {
	UserID   int64
	Password string
}

// UserCredential is the row read on sign-in.
type UserCredential struct {
	User
	Password string
}

// UserProfile is a user with the counters shown on a profile page.
// IsFollowing is only meaningful for an authenticated viewer.
type UserProfile struct {
	User
	BlogCount      int64
	FollowerCount  int64
	FollowingCount int64
	IsFollowing    bool
}

type UserListFilter struct {
	Search string
	Limit  int32
	Offset int64
}

// UserPatch carries the columns to change. Nil fields are left untouched.
type UserPatch struct {
	ID       int64
	Name     *string
	Username *string
	Password *string
}
