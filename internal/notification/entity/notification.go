package entity

import (
	"time"

	"github.com/shandysiswandi/quill/internal/pkg/valueobject"
)

type Notification struct {
	ID        int64
	UserID    int64
	Kind      Kind
	Title     string
	Body      string
	Data      valueobject.JSONMap
	ReadAt    *time.Time
	CreatedAt time.Time
}

func (n Notification) IsRead() bool { return n.ReadAt != nil }

type InboxFilter struct {
	UserID     int64
	UnreadOnly bool
	Limit      int32
	Offset     int64
}
