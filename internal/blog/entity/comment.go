package entity

import "time"

type Comment struct {
	ID        int64
	BlogID    int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    Author
}

type CommentListFilter struct {
	BlogID int64
	Limit  int32
	Offset int64
}
