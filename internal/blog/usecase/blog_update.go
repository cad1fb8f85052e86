package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type BlogUpdateInput struct {
	ID        int64   `validate:"required,gt=0"`
	Title     *string `validate:"omitnil,min=5,max=200"`
	Content   *string `validate:"omitnil,min=10"`
	Published *bool
}

// BlogUpdate changes a post. Only the author or a blog moderator may do so.
func (s *Usecase) BlogUpdate(ctx context.Context, in BlogUpdateInput) (*entity.BlogDetail, error) {
	ctx, span := s.startSpan(ctx, "BlogUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Title == nil && in.Content == nil && in.Published == nil {
		return nil, goerror.NewInvalidInput(nil, "title", "at least one of title, content or published is required")
	}

	if _, err := s.ownedBlog(ctx, clm.UserID, in.ID); err != nil {
		return nil, err
	}

	err = s.repoDB.PatchBlog(ctx, entity.BlogPatch{
		ID:        in.ID,
		Title:     in.Title,
		Content:   in.Content,
		Published: in.Published,
		UpdatedAt: s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "blog vanished before update", "blog_id", in.ID)
		return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo patch blog", "blog_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	detail, err := s.repoDB.GetBlogDetail(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, s.blogNotFound(ctx, in.ID, err)
	}

	return detail, nil
}
