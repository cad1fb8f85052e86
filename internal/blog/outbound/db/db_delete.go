package db

import "context"

// DeleteBlog removes the post. Likes and comments go with it by cascade.
func (s *DB) DeleteBlog(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteBlog")
	defer func() { s.endSpan(span, err) }()

	return s.affected(s.conn.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id))
}

func (s *DB) DeleteLike(ctx context.Context, blogID, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteLike")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM blog_likes WHERE blog_id = $1 AND user_id = $2`, blogID, userID)
	return s.mapError(err)
}

func (s *DB) DeleteComment(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteComment")
	defer func() { s.endSpan(span, err) }()

	return s.affected(s.conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id))
}
