package db

import (
	"context"

	"github.com/shandysiswandi/quill/internal/blog/entity"
)

// PatchBlog updates the non-nil fields.
func (s *DB) PatchBlog(ctx context.Context, patch entity.BlogPatch) (err error) {
	ctx, span := s.startSpan(ctx, "PatchBlog")
	defer func() { s.endSpan(span, err) }()

	return s.affected(s.conn.Exec(ctx, `
		UPDATE blogs SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			published = COALESCE($4, published),
			updated_at = $5
		WHERE id = $1`, patch.ID, patch.Title, patch.Content, patch.Published, patch.UpdatedAt))
}

func (s *DB) UpdateBlogCover(ctx context.Context, id int64, coverURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateBlogCover")
	defer func() { s.endSpan(span, err) }()

	return s.affected(s.conn.Exec(ctx, `UPDATE blogs SET cover_url = $2, updated_at = now() WHERE id = $1`, id, coverURL))
}

func (s *DB) UpdateComment(ctx context.Context, comment entity.Comment) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateComment")
	defer func() { s.endSpan(span, err) }()

	return s.affected(s.conn.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		comment.ID, comment.Content, comment.UpdatedAt))
}
