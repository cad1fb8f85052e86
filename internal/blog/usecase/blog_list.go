package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type BlogListInput struct {
	AuthorID int64 `validate:"gte=0"`
	// Following restricts the feed to authors the caller follows.
	Following bool
	pagination.Request
}

type BlogListOutput struct {
	Meta  pagination.Meta
	Blogs []entity.BlogDetail
}

// BlogList returns published posts, newest first.
func (s *Usecase) BlogList(ctx context.Context, in BlogListInput) (*BlogListOutput, error) {
	ctx, span := s.startSpan(ctx, "BlogList")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	viewer := viewerID(ctx)
	filter := entity.BlogListFilter{AuthorID: in.AuthorID, ViewerID: viewer}
	if in.Following {
		if viewer == 0 {
			return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
		}
		filter.FollowerID = viewer
	}

	return s.blogList(ctx, filter, in.Request)
}

type BlogMineInput struct {
	pagination.Request
}

// BlogMine lists the caller's posts, drafts included.
func (s *Usecase) BlogMine(ctx context.Context, in BlogMineInput) (*BlogListOutput, error) {
	ctx, span := s.startSpan(ctx, "BlogMine")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.blogList(ctx, entity.BlogListFilter{
		AuthorID:      clm.UserID,
		ViewerID:      clm.UserID,
		IncludeDrafts: true,
	}, in.Request)
}

func (s *Usecase) blogList(ctx context.Context, filter entity.BlogListFilter, req pagination.Request) (*BlogListOutput, error) {
	page := req.Normalize()
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	blogs, total, err := s.repoDB.GetBlogList(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list blogs", "author_id", filter.AuthorID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BlogListOutput{
		Meta:  pagination.NewMeta(page, total),
		Blogs: blogs,
	}, nil
}
