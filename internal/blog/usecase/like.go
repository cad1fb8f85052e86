package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type LikeInput struct {
	BlogID int64 `validate:"required,gt=0"`
}

// Like is idempotent. The author is notified of new likes from other users.
func (s *Usecase) Like(ctx context.Context, in LikeInput) error {
	ctx, span := s.startSpan(ctx, "Like")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	blog, err := s.visibleBlog(ctx, in.BlogID, clm.UserID)
	if err != nil {
		return err
	}

	created, err := s.repoDB.CreateLike(ctx, entity.Like{
		BlogID:    blog.ID,
		UserID:    clm.UserID,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create like", "blog_id", blog.ID, "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !created || blog.AuthorID == clm.UserID {
		return nil
	}

	actor, err := s.repoDB.GetAuthor(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get liker", "user_id", clm.UserID, "error", err)
		return nil
	}

	if err := s.repoMessaging.PublishBlogLiked(ctx, BlogLikedEvent{
		BlogID:      blog.ID,
		BlogTitle:   blog.Title,
		AuthorID:    blog.AuthorID,
		AuthorEmail: blog.Author.Username,
		ActorID:     actor.ID,
		ActorName:   actor.DisplayName(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish blog liked", "blog_id", blog.ID, "error", err)
	}

	return nil
}

type UnlikeInput struct {
	BlogID int64 `validate:"required,gt=0"`
}

func (s *Usecase) Unlike(ctx context.Context, in UnlikeInput) error {
	ctx, span := s.startSpan(ctx, "Unlike")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.DeleteLike(ctx, in.BlogID, clm.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete like", "blog_id", in.BlogID, "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
