package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/quill/internal/identity/entity"
)

// NewUser inserts the user and its credential atomically.
func (s *DB) NewUser(ctx context.Context, user entity.User, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "NewUser")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, name, avatar_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			user.ID, user.Username, user.Name, user.AvatarURL, user.CreatedAt, user.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `INSERT INTO credentials (user_id, password) VALUES ($1, $2)`, user.ID, hash)
		return err
	})
}

func (s *DB) CreateRefreshToken(ctx context.Context, in entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)`, in.ID, in.UserID, in.Token, in.ExpiresAt)
	return s.mapError(err)
}

// CreateFollow reports whether a new row was inserted.
func (s *DB) CreateFollow(ctx context.Context, in entity.Follow) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateFollow")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO follows (follower_id, following_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, in.FollowerID, in.FollowingID, in.CreatedAt)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
