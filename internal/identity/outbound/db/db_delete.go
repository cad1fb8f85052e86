package db

import "context"

func (s *DB) DeleteFollow(ctx context.Context, followerID, followingID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteFollow")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, followerID, followingID)
	return s.mapError(err)
}
