package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type InboxInput struct {
	UnreadOnly bool
	pagination.Request
}

type InboxOutput struct {
	Meta          pagination.Meta
	UnreadCount   int64
	Notifications []entity.Notification
}

// Inbox lists the caller's notifications, newest first.
func (s *Usecase) Inbox(ctx context.Context, in InboxInput) (*InboxOutput, error) {
	ctx, span := s.startSpan(ctx, "Inbox")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	page := in.Normalize()
	items, total, err := s.repoDB.GetInbox(ctx, entity.InboxFilter{
		UserID:     clm.UserID,
		UnreadOnly: in.UnreadOnly,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get inbox", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unread := total
	if !in.UnreadOnly {
		if unread, err = s.repoDB.CountUnread(ctx, clm.UserID); err != nil {
			slog.ErrorContext(ctx, "failed to repo count unread", "user_id", clm.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	return &InboxOutput{
		Meta:          pagination.NewMeta(page, total),
		UnreadCount:   unread,
		Notifications: items,
	}, nil
}

type InboxMarkReadInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) InboxMarkRead(ctx context.Context, in InboxMarkReadInput) error {
	ctx, span := s.startSpan(ctx, "InboxMarkRead")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.MarkRead(ctx, clm.UserID, in.ID, s.clock.Now()); err != nil {
		return s.inboxError(ctx, clm.UserID, in.ID, "mark read", err)
	}

	return nil
}

func (s *Usecase) InboxMarkAllRead(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "InboxMarkAllRead")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	n, err := s.repoDB.MarkAllRead(ctx, clm.UserID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark all read", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "inbox marked read", "user_id", clm.UserID, "count", n)
	return nil
}

type InboxDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) InboxDelete(ctx context.Context, in InboxDeleteInput) error {
	ctx, span := s.startSpan(ctx, "InboxDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.DeleteNotification(ctx, clm.UserID, in.ID); err != nil {
		return s.inboxError(ctx, clm.UserID, in.ID, "delete", err)
	}

	return nil
}

func (s *Usecase) inboxError(ctx context.Context, userID, id int64, op string, err error) error {
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "notification not found", "user_id", userID, "notification_id", id)
		return goerror.NewBusiness("notification not found", goerror.CodeNotFound)
	}

	slog.ErrorContext(ctx, "failed to repo "+op+" notification", "user_id", userID, "notification_id", id, "error", err)
	return goerror.NewServer(err)
}
