package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

// PatchUser updates the non-nil fields. A password change also revokes
// every refresh token of the user in the same transaction.
func (s *DB) PatchUser(ctx context.Context, patch entity.UserPatch) (err error) {
	ctx, span := s.startSpan(ctx, "PatchUser")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET
				name = COALESCE($2, name),
				username = COALESCE($3, username),
				updated_at = now()
			WHERE id = $1`, patch.ID, patch.Name, patch.Username)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		if patch.Password == nil {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE credentials SET password = $2, updated_at = now()
			WHERE user_id = $1`, patch.ID, *patch.Password); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, patch.ID)
		return err
	})
}

func (s *DB) UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`, id, avatarURL)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// RotateRefreshToken marks the old token replaced and inserts the new one.
// It returns goerror.ErrNotFound when the old token was already revoked by
// a concurrent request.
func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO refresh_tokens (id, user_id, token, expires_at)
			VALUES ($1, $2, $3, $4)`, ro.NewID, ro.UserID, ro.NewToken, ro.NewExpiresAt); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE refresh_tokens SET revoked = TRUE, replaced_by_id = $2
			WHERE id = $1 AND user_id = $3 AND NOT revoked`, ro.OldID, ro.NewID, ro.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		return nil
	})
}

func (s *DB) RevokeRefreshToken(ctx context.Context, userID int64, token string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) RevokeAllRefreshToken(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	return s.mapError(err)
}
