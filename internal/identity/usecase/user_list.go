package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type UserListInput struct {
	Search string `validate:"max=100"`
	pagination.Request
}

type UserListOutput struct {
	Meta  pagination.Meta
	Users []entity.User
}

func (s *Usecase) UserList(ctx context.Context, in UserListInput) (*UserListOutput, error) {
	ctx, span := s.startSpan(ctx, "UserList")
	defer span.End()

	in.Search = strings.TrimSpace(in.Search)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	page := in.Normalize()
	users, total, err := s.repoDB.GetUserList(ctx, entity.UserListFilter{
		Search: in.Search,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &UserListOutput{
		Meta:  pagination.NewMeta(page, total),
		Users: users,
	}, nil
}
