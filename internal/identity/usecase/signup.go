package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/constant"
)

type SignupInput struct {
	Username string `validate:"required,email,max=255"`
	Password string `validate:"required,password"`
	Name     string `validate:"omitempty,max=100"`
}

func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*TokenOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetUserByUsername(ctx, in.Username)
	if err == nil {
		slog.WarnContext(ctx, "username already registered", "username", in.Username)
		return nil, goerror.NewBusiness("username already taken", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	passHash, err := s.credential.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive password credential", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	user := entity.User{
		ID:        s.uid.Generate(),
		Username:  in.Username,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repoDB.NewUser(ctx, user, string(passHash))
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "username registered concurrently", "username", in.Username)
		return nil, goerror.NewBusiness("username already taken", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The account is committed at this point; a missing role grant or event is
	// logged and repaired out of band rather than failing the signup.
	if _, err := s.enforcer.AddGroupingPolicy(subject(user.ID), constant.RoleUser); err != nil {
		slog.ErrorContext(ctx, "failed to grant default role", "user_id", user.ID, "error", err)
	}

	if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "error", err)
	}

	return s.issueTokens(ctx, user)
}
