package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type FollowListInput struct {
	UserID int64 `validate:"required,gt=0"`
	pagination.Request
}

type FollowListOutput struct {
	Meta  pagination.Meta
	Users []entity.FollowUser
}

type followLister func(ctx context.Context, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error)

func (s *Usecase) Followers(ctx context.Context, in FollowListInput) (*FollowListOutput, error) {
	ctx, span := s.startSpan(ctx, "Followers")
	defer span.End()

	return s.followList(ctx, in, s.repoDB.GetFollowers)
}

func (s *Usecase) Following(ctx context.Context, in FollowListInput) (*FollowListOutput, error) {
	ctx, span := s.startSpan(ctx, "Following")
	defer span.End()

	return s.followList(ctx, in, s.repoDB.GetFollowing)
}

func (s *Usecase) followList(ctx context.Context, in FollowListInput, list followLister) (*FollowListOutput, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.repoDB.GetUserByID(ctx, in.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	page := in.Normalize()
	users, total, err := list(ctx, entity.FollowListFilter{
		UserID: in.UserID,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list follows", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &FollowListOutput{
		Meta:  pagination.NewMeta(page, total),
		Users: users,
	}, nil
}
