package db

import (
	"context"

	"github.com/shandysiswandi/quill/internal/blog/entity"
)

func (s *DB) CreateBlog(ctx context.Context, blog entity.Blog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateBlog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO blogs (id, author_id, title, content, cover_url, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		blog.ID, blog.AuthorID, blog.Title, blog.Content, blog.CoverURL, blog.Published, blog.CreatedAt, blog.UpdatedAt)
	return s.mapError(err)
}

// CreateLike reports whether a new row was inserted.
func (s *DB) CreateLike(ctx context.Context, like entity.Like) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateLike")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO blog_likes (blog_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, like.BlogID, like.UserID, like.CreatedAt)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) CreateComment(ctx context.Context, comment entity.Comment) (err error) {
	ctx, span := s.startSpan(ctx, "CreateComment")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO comments (id, blog_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.BlogID, comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	return s.mapError(err)
}
