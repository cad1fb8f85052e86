package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/idempotency"
	"github.com/shandysiswandi/quill/internal/shared/constant"
)

type BlogCreateInput struct {
	// IdempotencyKey is optional. A repeated key is rejected instead of
	// creating a second post.
	IdempotencyKey string `validate:"omitempty,max=128"`
	Title          string `validate:"required,min=5,max=200"`
	Content        string `validate:"required,min=10"`
	Published      bool
}

func (s *Usecase) BlogCreate(ctx context.Context, in BlogCreateInput) (*entity.Blog, error) {
	ctx, span := s.startSpan(ctx, "BlogCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	allowed, err := s.enforcer.Enforce(subject(clm.UserID), constant.PermBlog, constant.PermActWrite)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enforce blog write permission", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "blog write not permitted", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("you are not allowed to write blogs", goerror.CodeForbidden)
	}

	now := s.clock.Now()
	blog := entity.Blog{
		ID:        s.uid.Generate(),
		AuthorID:  clm.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	create := func(ctx context.Context) error {
		return s.repoDB.CreateBlog(ctx, blog)
	}

	if in.IdempotencyKey == "" {
		err = create(ctx)
	} else {
		key := fmt.Sprintf("blog:create:%d:%s", clm.UserID, in.IdempotencyKey)
		err = s.idempotency.Exec(ctx, key, create,
			idempotency.WithStateTTL(s.cfg.GetHour("modules.blog.idempotency_ttl_hours")))
	}

	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "blog create already in progress", "user_id", clm.UserID, "idempotency_key", in.IdempotencyKey)
		return nil, goerror.NewBusiness("request is already in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.WarnContext(ctx, "blog create replayed", "user_id", clm.UserID, "idempotency_key", in.IdempotencyKey)
		return nil, goerror.NewBusiness("request already processed", goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo create blog", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &blog, nil
}
