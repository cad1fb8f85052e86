package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

type ProfileUpdateInput struct {
	Name     *string `validate:"omitnil,max=100"`
	Username *string `validate:"omitnil,email,max=255"`
	Password *string `validate:"omitnil,password"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		in.Username = &username
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.Name == nil && in.Username == nil && in.Password == nil {
		return goerror.NewInvalidInput(nil, "name", "at least one of name, username or password is required")
	}

	patch := entity.UserPatch{ID: clm.UserID, Name: in.Name, Username: in.Username}

	if in.Username != nil {
		other, err := s.repoDB.GetUserByUsername(ctx, *in.Username)
		switch {
		case err == nil && other.ID != clm.UserID:
			slog.WarnContext(ctx, "username already registered", "username", *in.Username)
			return goerror.NewBusiness("username already taken", goerror.CodeConflict)
		case err != nil && !errors.Is(err, goerror.ErrNotFound):
			slog.ErrorContext(ctx, "failed to repo get user by username", "username", *in.Username, "error", err)
			return goerror.NewServer(err)
		}
	}

	if in.Password != nil {
		passHash, err := s.credential.Hash(*in.Password)
		if err != nil {
			slog.ErrorContext(ctx, "failed to derive password credential", "user_id", clm.UserID, "error", err)
			return goerror.NewServer(err)
		}
		stored := string(passHash)
		patch.Password = &stored
	}

	err = s.repoDB.PatchUser(ctx, patch)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "username registered concurrently", "user_id", clm.UserID)
		return goerror.NewBusiness("username already taken", goerror.CodeConflict)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user no longer exists", "user_id", clm.UserID)
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo patch user", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
