package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/quill/internal/identity/entity"
)

const userColumns = `u.id, u.username, u.name, u.avatar_url, u.created_at, u.updated_at`

func scanUser(row pgx.Row, extra ...any) (entity.User, error) {
	var u entity.User
	dest := append([]any{&u.ID, &u.Username, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	return u, err
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE lower(u.username) = lower($1)`, username))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) GetUserCredential(ctx context.Context, username string) (_ *entity.UserCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredential")
	defer func() { s.endSpan(span, err) }()

	var password string
	u, err := scanUser(s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`, c.password
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE lower(u.username) = lower($1)`, username), &password)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.UserCredential{User: u, Password: password}, nil
}

// GetUserProfile loads a user with its counters. viewerID 0 means anonymous.
func (s *DB) GetUserProfile(ctx context.Context, id, viewerID int64) (_ *entity.UserProfile, err error) {
	ctx, span := s.startSpan(ctx, "GetUserProfile")
	defer func() { s.endSpan(span, err) }()

	p := entity.UserProfile{}
	p.User, err = scanUser(s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`,
			(SELECT count(*) FROM blogs b WHERE b.author_id = u.id),
			(SELECT count(*) FROM follows f WHERE f.following_id = u.id),
			(SELECT count(*) FROM follows f WHERE f.follower_id = u.id),
			EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $2 AND f.following_id = u.id)
		FROM users u
		WHERE u.id = $1`, id, viewerID),
		&p.BlogCount, &p.FollowerCount, &p.FollowingCount, &p.IsFollowing)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

func (s *DB) GetUserList(ctx context.Context, filter entity.UserListFilter) (_ []entity.User, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetUserList")
	defer func() { s.endSpan(span, err) }()

	const where = `WHERE $1::text = '' OR u.name ILIKE '%' || $1 || '%' OR u.username ILIKE '%' || $1 || '%'`

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM users u `+where, filter.Search).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, `SELECT `+userColumns+` FROM users u `+where+`
		ORDER BY u.created_at DESC, u.id DESC LIMIT $2 OFFSET $3`, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return users, total, nil
}

func (s *DB) GetUserRefreshToken(ctx context.Context, token string) (_ *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	var rt entity.UserRefreshToken
	err = s.conn.QueryRow(ctx, `
		SELECT rt.id, rt.user_id, rt.token, rt.expires_at, rt.revoked, rt.replaced_by_id, u.username
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token = $1`, token).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedByID, &rt.Username)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &rt, nil
}

func (s *DB) GetFollowers(ctx context.Context, filter entity.FollowListFilter) (_ []entity.FollowUser, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetFollowers")
	defer func() { s.endSpan(span, err) }()

	return s.followList(ctx, "following_id", "follower_id", filter)
}

func (s *DB) GetFollowing(ctx context.Context, filter entity.FollowListFilter) (_ []entity.FollowUser, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetFollowing")
	defer func() { s.endSpan(span, err) }()

	return s.followList(ctx, "follower_id", "following_id", filter)
}

// followList filters follows on by and joins users on other. Both are
// column names from the callers above, never user input.
func (s *DB) followList(ctx context.Context, by, other string, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error) {
	var total int64
	if err := s.conn.QueryRow(ctx, `SELECT count(*) FROM follows WHERE `+by+` = $1`, filter.UserID).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+userColumns+`, f.created_at
		FROM follows f
		JOIN users u ON u.id = f.`+other+`
		WHERE f.`+by+` = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.FollowUser, error) {
		var fu entity.FollowUser
		u, err := scanUser(row, &fu.FollowedAt)
		fu.User = u
		return fu, err
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return list, total, nil
}
