package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/quill/internal/blog/entity"
)

const blogColumns = `b.id, b.author_id, b.title, b.content, b.cover_url, b.published, b.created_at, b.updated_at`

// detailSelect expects the viewer id as $1.
const detailSelect = `
	SELECT ` + blogColumns + `,
		u.id, u.name, u.username, u.avatar_url,
		(SELECT count(*) FROM blog_likes l WHERE l.blog_id = b.id),
		(SELECT count(*) FROM comments c WHERE c.blog_id = b.id),
		EXISTS (SELECT 1 FROM blog_likes l WHERE l.blog_id = b.id AND l.user_id = $1)
	FROM blogs b
	JOIN users u ON u.id = b.author_id`

func blogDest(b *entity.Blog) []any {
	return []any{&b.ID, &b.AuthorID, &b.Title, &b.Content, &b.CoverURL, &b.Published, &b.CreatedAt, &b.UpdatedAt}
}

func scanDetail(row pgx.Row) (entity.BlogDetail, error) {
	var d entity.BlogDetail
	dest := append(blogDest(&d.Blog),
		&d.Author.ID, &d.Author.Name, &d.Author.Username, &d.Author.AvatarURL,
		&d.LikeCount, &d.CommentCount, &d.LikedByMe)
	err := row.Scan(dest...)
	return d, err
}

func (s *DB) GetBlog(ctx context.Context, id int64) (_ *entity.Blog, err error) {
	ctx, span := s.startSpan(ctx, "GetBlog")
	defer func() { s.endSpan(span, err) }()

	var b entity.Blog
	if err = s.conn.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs b WHERE b.id = $1`, id).Scan(blogDest(&b)...); err != nil {
		return nil, s.mapError(err)
	}

	return &b, nil
}

// GetBlogDetail loads a post with author and counters. viewerID 0 means anonymous.
func (s *DB) GetBlogDetail(ctx context.Context, id, viewerID int64) (_ *entity.BlogDetail, err error) {
	ctx, span := s.startSpan(ctx, "GetBlogDetail")
	defer func() { s.endSpan(span, err) }()

	d, err := scanDetail(s.conn.QueryRow(ctx, detailSelect+` WHERE b.id = $2`, viewerID, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &d, nil
}

// listWhere renders the list filter with placeholders starting at $n:
// author, follower, include drafts.
func listWhere(n int) string {
	return fmt.Sprintf(`
		WHERE ($%[1]d::bigint = 0 OR b.author_id = $%[1]d)
		AND ($%[2]d::bigint = 0 OR EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = $%[2]d AND f.following_id = b.author_id))
		AND ($%[3]d::boolean OR b.published)`, n, n+1, n+2)
}

func (s *DB) GetBlogList(ctx context.Context, filter entity.BlogListFilter) (_ []entity.BlogDetail, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetBlogList")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM blogs b `+listWhere(1),
		filter.AuthorID, filter.FollowerID, filter.IncludeDrafts).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, detailSelect+listWhere(2)+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $5 OFFSET $6`,
		filter.ViewerID, filter.AuthorID, filter.FollowerID, filter.IncludeDrafts, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	blogs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BlogDetail, error) {
		return scanDetail(row)
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return blogs, total, nil
}

func (s *DB) GetAuthor(ctx context.Context, id int64) (_ *entity.Author, err error) {
	ctx, span := s.startSpan(ctx, "GetAuthor")
	defer func() { s.endSpan(span, err) }()

	var a entity.Author
	if err = s.conn.QueryRow(ctx, `SELECT id, name, username, avatar_url FROM users WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Username, &a.AvatarURL); err != nil {
		return nil, s.mapError(err)
	}

	return &a, nil
}

const commentSelect = `
	SELECT c.id, c.blog_id, c.author_id, c.content, c.created_at, c.updated_at,
		u.id, u.name, u.username, u.avatar_url
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.Row) (entity.Comment, error) {
	var c entity.Comment
	err := row.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Name, &c.Author.Username, &c.Author.AvatarURL)
	return c, err
}

func (s *DB) GetComment(ctx context.Context, id int64) (_ *entity.Comment, err error) {
	ctx, span := s.startSpan(ctx, "GetComment")
	defer func() { s.endSpan(span, err) }()

	c, err := scanComment(s.conn.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}

// GetCommentList returns comments oldest first.
func (s *DB) GetCommentList(ctx context.Context, filter entity.CommentListFilter) (_ []entity.Comment, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetCommentList")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM comments WHERE blog_id = $1`, filter.BlogID).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, commentSelect+`
		WHERE c.blog_id = $1
		ORDER BY c.created_at, c.id
		LIMIT $2 OFFSET $3`, filter.BlogID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Comment, error) {
		return scanComment(row)
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return comments, total, nil
}
