package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/pkg/valueobject"
)

type ConsumeUserRegisteredInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Username string `validate:"required,email"`
	Name     string
}

// ConsumeUserRegistered greets a new user in the inbox and by email.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed, message dropped", "error", err)
		return nil
	}

	name := in.Name
	if name == "" {
		name = in.Username
	}

	if err := s.notify(ctx, entity.Notification{
		UserID: in.UserID,
		Kind:   entity.KindWelcome,
		Title:  "Welcome to " + s.appName(),
		Body:   "Hi " + name + ", your account is ready.",
		Data:   valueobject.JSONMap{"name": name},
	}); err != nil {
		return err
	}

	if err := s.repoMail.SendWelcome(ctx, WelcomeEmail{
		To:      in.Username,
		Name:    name,
		AppName: s.appName(),
		WebURL:  s.link("/"),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send welcome email", "user_id", in.UserID, "error", err)
	}

	return nil
}

type ConsumeUserFollowedInput struct {
	FollowerID     int64 `validate:"required,gt=0"`
	FollowerName   string
	FollowingID    int64  `validate:"required,gt=0"`
	FollowingEmail string `validate:"required,email"`
}

func (s *Usecase) ConsumeUserFollowed(ctx context.Context, in ConsumeUserFollowedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserFollowed")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed, message dropped", "error", err)
		return nil
	}

	headline := in.FollowerName + " started following you"
	if err := s.notify(ctx, entity.Notification{
		UserID: in.FollowingID,
		Kind:   entity.KindFollow,
		Title:  "New follower",
		Body:   headline + ".",
		Data: valueobject.JSONMap{
			"actor_id":   idString(in.FollowerID),
			"actor_name": in.FollowerName,
		},
	}); err != nil {
		return err
	}

	s.sendActivity(ctx, ActivityEmail{
		To:       in.FollowingEmail,
		Subject:  "New follower",
		Headline: headline,
		LinkURL:  s.link("/profile/" + idString(in.FollowerID)),
	})

	return nil
}

type ConsumeBlogLikedInput struct {
	BlogID      int64 `validate:"required,gt=0"`
	BlogTitle   string
	AuthorID    int64  `validate:"required,gt=0"`
	AuthorEmail string `validate:"required,email"`
	ActorID     int64  `validate:"required,gt=0"`
	ActorName   string
}

func (s *Usecase) ConsumeBlogLiked(ctx context.Context, in ConsumeBlogLikedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeBlogLiked")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed, message dropped", "error", err)
		return nil
	}

	headline := in.ActorName + " liked \"" + in.BlogTitle + "\""
	if err := s.notify(ctx, entity.Notification{
		UserID: in.AuthorID,
		Kind:   entity.KindLike,
		Title:  "New like",
		Body:   headline,
		Data: valueobject.JSONMap{
			"actor_id":   idString(in.ActorID),
			"actor_name": in.ActorName,
			"blog_id":    idString(in.BlogID),
			"blog_title": in.BlogTitle,
		},
	}); err != nil {
		return err
	}

	s.sendActivity(ctx, ActivityEmail{
		To:       in.AuthorEmail,
		Subject:  "New like on your post",
		Headline: headline,
		LinkURL:  s.link("/blog/" + idString(in.BlogID)),
	})

	return nil
}

type ConsumeBlogCommentedInput struct {
	BlogID      int64 `validate:"required,gt=0"`
	BlogTitle   string
	CommentID   int64 `validate:"required,gt=0"`
	Excerpt     string
	AuthorID    int64  `validate:"required,gt=0"`
	AuthorEmail string `validate:"required,email"`
	ActorID     int64  `validate:"required,gt=0"`
	ActorName   string
}

func (s *Usecase) ConsumeBlogCommented(ctx context.Context, in ConsumeBlogCommentedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeBlogCommented")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed, message dropped", "error", err)
		return nil
	}

	headline := in.ActorName + " commented on \"" + in.BlogTitle + "\""
	if err := s.notify(ctx, entity.Notification{
		UserID: in.AuthorID,
		Kind:   entity.KindComment,
		Title:  "New comment",
		Body:   headline + ": " + in.Excerpt,
		Data: valueobject.JSONMap{
			"actor_id":   idString(in.ActorID),
			"actor_name": in.ActorName,
			"blog_id":    idString(in.BlogID),
			"blog_title": in.BlogTitle,
			"comment_id": idString(in.CommentID),
			"excerpt":    in.Excerpt,
		},
	}); err != nil {
		return err
	}

	s.sendActivity(ctx, ActivityEmail{
		To:       in.AuthorEmail,
		Subject:  "New comment on your post",
		Headline: headline,
		Body:     in.Excerpt,
		LinkURL:  s.link("/blog/" + idString(in.BlogID)),
	})

	return nil
}
