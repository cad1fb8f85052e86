package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

func (s *Usecase) Me(ctx context.Context) (*entity.UserProfile, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.repoDB.GetUserProfile(ctx, clm.UserID, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user no longer exists", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user profile", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return profile, nil
}
