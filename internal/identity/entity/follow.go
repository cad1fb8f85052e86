package entity

import "time"

type Follow struct {
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// FollowUser is an entry of a followers or following list.
type FollowUser struct {
	User
	FollowedAt time.Time
}

type FollowListFilter struct {
	UserID int64
	Limit  int32
	Offset int64
}
