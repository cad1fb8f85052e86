package db

import (
	"context"

	"github.com/shandysiswandi/quill/internal/notification/entity"
)

func (s *DB) CreateNotification(ctx context.Context, n entity.Notification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Kind.String(), n.Title, n.Body, n.Data, n.CreatedAt)

	return s.mapError(err)
}
