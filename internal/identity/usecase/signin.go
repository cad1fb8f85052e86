package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

// dummyCredential is a well-formed credential (zero salt, zero key) that no
// password derives to. Verifying against it keeps the unknown-user path as
// slow as the wrong-password path.
const dummyCredential = "AAAAAAAAAAAAAAAAAAAAAA==:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

type SigninInput struct {
	Username string `validate:"required,email"`
	Password string `validate:"required"`
}

func (s *Usecase) Signin(ctx context.Context, in SigninInput) (*TokenOutput, error) {
	ctx, span := s.startSpan(ctx, "Signin")
	defer span.End()

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetUserCredential(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "username", in.Username)
		s.credential.Verify(dummyCredential, in.Password)
		return nil, goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.credential.Verify(cred.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", cred.ID)
		return nil, goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}

	return s.issueTokens(ctx, cred.User)
}
