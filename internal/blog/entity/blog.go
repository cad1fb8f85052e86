package entity

import "time"

type Blog struct {
	ID        int64
	AuthorID  int64
	Title     string
	Content   string
	CoverURL  string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Author is the public view of a user as shown next to posts and comments.
type Author struct {
	ID        int64
	Name      string
	Username  string
	AvatarURL string
}

// DisplayName falls back to the username when no name was set.
func (a Author) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}

type BlogDetail struct {
	Blog
	Author       Author
	LikeCount    int64
	CommentCount int64
	LikedByMe    bool
}

// BlogListFilter selects posts. Zero values disable a condition.
type BlogListFilter struct {
	AuthorID int64
	// FollowerID restricts results to authors followed by this user.
	FollowerID    int64
	ViewerID      int64
	IncludeDrafts bool
	Limit         int32
	Offset        int64
}

type BlogPatch struct {
	ID        int64
	Title     *string
	Content   *string
	Published *bool
	UpdatedAt time.Time
}

type Like struct {
	BlogID    int64
	UserID    int64
	CreatedAt time.Time
}
