package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type LogoutInput struct {
	RefreshToken string `validate:"required"`
}

// Logout revokes the refresh token and denies the current access token for
// the rest of its lifetime.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.RevokeRefreshToken(ctx, clm.UserID, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token not found on logout", "user_id", clm.UserID)
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if ttl := clm.Remaining(s.clock.Now()); ttl > 0 {
		if err := s.denylist.Add(ctx, clm.ID, ttl); err != nil {
			slog.ErrorContext(ctx, "failed to deny access token", "user_id", clm.UserID, "jti", clm.ID, "error", err)
			return goerror.NewServer(err)
		}
	}

	return nil
}
