package inbound

import (
	"time"

	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/pkg/valueobject"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type NotificationResponse struct {
	ID        int64               `json:"id,string"`
	Kind      string              `json:"kind"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Data      valueobject.JSONMap `json:"data"`
	Read      bool                `json:"read"`
	ReadAt    *time.Time          `json:"read_at"`
	CreatedAt time.Time           `json:"created_at"`
}

func toNotificationResponse(n entity.Notification) NotificationResponse {
	data := n.Data
	if data == nil {
		data = valueobject.JSONMap{}
	}

	return NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind.String(),
		Title:     n.Title,
		Body:      n.Body,
		Data:      data,
		Read:      n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

type InboxResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	meta          pagination.Meta
	unreadCount   int64
}

func (r InboxResponse) Meta() map[string]any {
	m := r.meta.Map()
	m["unread_count"] = r.unreadCount
	return m
}
