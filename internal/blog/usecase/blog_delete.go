package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type BlogDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

// BlogDelete removes a post with its likes and comments.
func (s *Usecase) BlogDelete(ctx context.Context, in BlogDeleteInput) error {
	ctx, span := s.startSpan(ctx, "BlogDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.ownedBlog(ctx, clm.UserID, in.ID); err != nil {
		return err
	}

	err = s.repoDB.DeleteBlog(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete blog", "blog_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
