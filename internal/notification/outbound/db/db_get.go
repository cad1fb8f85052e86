package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/quill/internal/notification/entity"
)

// inboxWhere expects the user id as $1 and the unread flag as $2.
const inboxWhere = ` WHERE user_id = $1 AND (NOT $2::boolean OR read_at IS NULL)`

func (s *DB) GetInbox(ctx context.Context, filter entity.InboxFilter) (_ []entity.Notification, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetInbox")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM notifications`+inboxWhere,
		filter.UserID, filter.UnreadOnly).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, kind, title, body, data, read_at, created_at
		FROM notifications`+inboxWhere+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		filter.UserID, filter.UnreadOnly, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Notification, error) {
		var (
			n    entity.Notification
			kind string
		)
		err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.Data, &n.ReadAt, &n.CreatedAt)
		n.Kind = entity.Kind(kind)
		return n, err
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, total, nil
}

func (s *DB) CountUnread(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnread")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	return n, s.mapError(err)
}
