package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

// MarkRead is scoped to the owner; someone else's notification is not found.
// Marking an already read notification keeps its first read time.
func (s *DB) MarkRead(ctx context.Context, userID, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2`, id, userID, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) MarkAllRead(ctx context.Context, userID int64, at time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkAllRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notifications SET read_at = $2
		WHERE user_id = $1 AND read_at IS NULL`, userID, at)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
