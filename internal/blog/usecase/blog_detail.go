package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/constant"
)

type BlogDetailInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) BlogDetail(ctx context.Context, in BlogDetailInput) (*entity.BlogDetail, error) {
	ctx, span := s.startSpan(ctx, "BlogDetail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.visibleBlog(ctx, in.ID, viewerID(ctx))
}

// visibleBlog loads a post as seen by viewerID. Drafts are visible to their
// author and to blog moderators only.
func (s *Usecase) visibleBlog(ctx context.Context, blogID, viewer int64) (*entity.BlogDetail, error) {
	detail, err := s.repoDB.GetBlogDetail(ctx, blogID, viewer)
	if err != nil {
		return nil, s.blogNotFound(ctx, blogID, err)
	}
	if detail.Published || detail.AuthorID == viewer {
		return detail, nil
	}

	ok, err := s.canModerate(ctx, viewer, constant.PermBlog)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.WarnContext(ctx, "draft blog hidden from viewer", "blog_id", blogID, "viewer_id", viewer)
		return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	}

	return detail, nil
}
