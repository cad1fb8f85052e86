package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/constant"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

const excerptRunes = 120

type CommentCreateInput struct {
	BlogID  int64  `validate:"required,gt=0"`
	Content string `validate:"required,max=500"`
}

func (s *Usecase) CommentCreate(ctx context.Context, in CommentCreateInput) (*entity.Comment, error) {
	ctx, span := s.startSpan(ctx, "CommentCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	blog, err := s.visibleBlog(ctx, in.BlogID, clm.UserID)
	if err != nil {
		return nil, err
	}

	actor, err := s.repoDB.GetAuthor(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get comment author", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	comment := entity.Comment{
		ID:        s.uid.Generate(),
		BlogID:    blog.ID,
		AuthorID:  clm.UserID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    *actor,
	}

	if err := s.repoDB.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "blog vanished before comment", "blog_id", blog.ID)
			return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo create comment", "blog_id", blog.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if blog.AuthorID != clm.UserID {
		if err := s.repoMessaging.PublishBlogCommented(ctx, BlogCommentedEvent{
			BlogID:      blog.ID,
			BlogTitle:   blog.Title,
			CommentID:   comment.ID,
			Excerpt:     excerpt(comment.Content, excerptRunes),
			AuthorID:    blog.AuthorID,
			AuthorEmail: blog.Author.Username,
			ActorID:     actor.ID,
			ActorName:   actor.DisplayName(),
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish blog commented", "comment_id", comment.ID, "error", err)
		}
	}

	return &comment, nil
}

type CommentUpdateInput struct {
	CommentID int64  `validate:"required,gt=0"`
	Content   string `validate:"required,max=500"`
}

// CommentUpdate edits the caller's own comment. Other comments look missing.
func (s *Usecase) CommentUpdate(ctx context.Context, in CommentUpdateInput) (*entity.Comment, error) {
	ctx, span := s.startSpan(ctx, "CommentUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	comment, err := s.getComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != clm.UserID {
		slog.WarnContext(ctx, "comment update by non author", "comment_id", comment.ID, "user_id", clm.UserID)
		return nil, goerror.NewBusiness("comment not found", goerror.CodeNotFound)
	}

	comment.Content = in.Content
	comment.UpdatedAt = s.clock.Now()

	err = s.repoDB.UpdateComment(ctx, *comment)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("comment not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update comment", "comment_id", comment.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return comment, nil
}

type CommentDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

// CommentDelete is allowed for the comment author, the blog author and
// comment moderators.
func (s *Usecase) CommentDelete(ctx context.Context, in CommentDeleteInput) error {
	ctx, span := s.startSpan(ctx, "CommentDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	comment, err := s.getComment(ctx, in.ID)
	if err != nil {
		return err
	}

	allowed, err := s.canDeleteComment(ctx, clm.UserID, comment)
	if err != nil {
		return err
	}
	if !allowed {
		slog.WarnContext(ctx, "comment delete denied", "comment_id", comment.ID, "user_id", clm.UserID)
		return goerror.NewBusiness("comment not found", goerror.CodeNotFound)
	}

	err = s.repoDB.DeleteComment(ctx, comment.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete comment", "comment_id", comment.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) canDeleteComment(ctx context.Context, userID int64, comment *entity.Comment) (bool, error) {
	if comment.AuthorID == userID {
		return true, nil
	}

	blog, err := s.repoDB.GetBlog(ctx, comment.BlogID)
	switch {
	case err == nil && blog.AuthorID == userID:
		return true, nil
	case err != nil && !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get blog of comment", "blog_id", comment.BlogID, "error", err)
		return false, goerror.NewServer(err)
	}

	return s.canModerate(ctx, userID, constant.PermComment)
}

type CommentListInput struct {
	BlogID int64 `validate:"required,gt=0"`
	pagination.Request
}

type CommentListOutput struct {
	Meta     pagination.Meta
	Comments []entity.Comment
}

// CommentList returns the comments of a visible post, oldest first.
func (s *Usecase) CommentList(ctx context.Context, in CommentListInput) (*CommentListOutput, error) {
	ctx, span := s.startSpan(ctx, "CommentList")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.visibleBlog(ctx, in.BlogID, viewerID(ctx)); err != nil {
		return nil, err
	}

	page := in.Normalize()
	comments, total, err := s.repoDB.GetCommentList(ctx, entity.CommentListFilter{
		BlogID: in.BlogID,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list comments", "blog_id", in.BlogID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CommentListOutput{
		Meta:     pagination.NewMeta(page, total),
		Comments: comments,
	}, nil
}

func (s *Usecase) getComment(ctx context.Context, id int64) (*entity.Comment, error) {
	comment, err := s.repoDB.GetComment(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "comment not found", "comment_id", id)
		return nil, goerror.NewBusiness("comment not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get comment", "comment_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return comment, nil
}

// excerpt cuts s to at most n runes, marking the cut with an ellipsis.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
