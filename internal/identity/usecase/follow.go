package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type FollowInput struct {
	FollowingID int64 `validate:"required,gt=0"`
}

// Follow is idempotent. The followed user is notified only when a new
// follow row is created.
func (s *Usecase) Follow(ctx context.Context, in FollowInput) error {
	ctx, span := s.startSpan(ctx, "Follow")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.FollowingID == clm.UserID {
		return goerror.NewInvalidInput(nil, "following_id", "you cannot follow yourself")
	}

	target, err := s.repoDB.GetUserByID(ctx, in.FollowingID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "follow target not found", "following_id", in.FollowingID)
		return goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.FollowingID, "error", err)
		return goerror.NewServer(err)
	}

	created, err := s.repoDB.CreateFollow(ctx, entity.Follow{
		FollowerID:  clm.UserID,
		FollowingID: target.ID,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create follow", "follower_id", clm.UserID, "following_id", target.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !created {
		return nil
	}

	follower, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get follower", "user_id", clm.UserID, "error", err)
		return nil
	}

	if err := s.repoMessaging.PublishUserFollowed(ctx, UserFollowedEvent{
		FollowerID:     follower.ID,
		FollowerName:   follower.DisplayName(),
		FollowingID:    target.ID,
		FollowingEmail: target.Username,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user followed", "follower_id", follower.ID, "error", err)
	}

	return nil
}

type UnfollowInput struct {
	FollowingID int64 `validate:"required,gt=0"`
}

func (s *Usecase) Unfollow(ctx context.Context, in UnfollowInput) error {
	ctx, span := s.startSpan(ctx, "Unfollow")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.DeleteFollow(ctx, clm.UserID, in.FollowingID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete follow", "follower_id", clm.UserID, "following_id", in.FollowingID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
