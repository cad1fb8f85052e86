package db

import (
	"context"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

func (s *DB) DeleteNotification(ctx context.Context, userID, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteNotification")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
