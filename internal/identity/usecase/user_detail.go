package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type UserDetailInput struct {
	ID int64 `validate:"required,gt=0"`
}

// UserDetail is public; IsFollowing is filled in for authenticated callers.
func (s *Usecase) UserDetail(ctx context.Context, in UserDetailInput) (*entity.UserProfile, error) {
	ctx, span := s.startSpan(ctx, "UserDetail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	profile, err := s.repoDB.GetUserProfile(ctx, in.ID, viewerID(ctx))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", in.ID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user profile", "user_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return profile, nil
}
