package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/quill/internal/notification/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/messaging"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// begin restores the publisher's correlation id, or mints one, and opens a span.
func (h *MQHandler) begin(ctx context.Context, msg messaging.Message, name string) (context.Context, trace.Span) {
	cID := msg.Header(messaging.HeaderCorrelationID)
	if cID == "" {
		cID = h.uuid.Generate()
	}
	ctx = instrument.SetCorrelationID(ctx, cID)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, name)
	slog.InfoContext(ctx, "consume: "+msg.Topic(), "msg_id", msg.ID(), "msg_body", string(msg.Body()))

	return ctx, span
}

// decode reports false for a malformed body. Such messages are acked and dropped.
func decode(ctx context.Context, msg messaging.Message, dst any) bool {
	if err := json.Unmarshal(msg.Body(), dst); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body", "topic", msg.Topic(), "msg_body", string(msg.Body()), "error", err)
		return false
	}
	return true
}

func (h *MQHandler) UserRegistered(ctx context.Context, msg messaging.Message) error {
	ctx, span := h.begin(ctx, msg, "UserRegistered")
	defer span.End()

	var payload event.UserRegisteredMessage
	if !decode(ctx, msg, &payload) {
		return nil
	}

	return h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:   payload.UserID,
		Username: payload.Username,
		Name:     payload.Name,
	})
}

func (h *MQHandler) UserFollowed(ctx context.Context, msg messaging.Message) error {
	ctx, span := h.begin(ctx, msg, "UserFollowed")
	defer span.End()

	var payload event.UserFollowedMessage
	if !decode(ctx, msg, &payload) {
		return nil
	}

	return h.uc.ConsumeUserFollowed(ctx, usecase.ConsumeUserFollowedInput{
		FollowerID:     payload.FollowerID,
		FollowerName:   payload.FollowerName,
		FollowingID:    payload.FollowingID,
		FollowingEmail: payload.FollowingEmail,
	})
}

func (h *MQHandler) BlogLiked(ctx context.Context, msg messaging.Message) error {
	ctx, span := h.begin(ctx, msg, "BlogLiked")
	defer span.End()

	var payload event.BlogLikedMessage
	if !decode(ctx, msg, &payload) {
		return nil
	}

	return h.uc.ConsumeBlogLiked(ctx, usecase.ConsumeBlogLikedInput{
		BlogID:      payload.BlogID,
		BlogTitle:   payload.BlogTitle,
		AuthorID:    payload.AuthorID,
		AuthorEmail: payload.AuthorEmail,
		ActorID:     payload.ActorID,
		ActorName:   payload.ActorName,
	})
}

func (h *MQHandler) BlogCommented(ctx context.Context, msg messaging.Message) error {
	ctx, span := h.begin(ctx, msg, "BlogCommented")
	defer span.End()

	var payload event.BlogCommentedMessage
	if !decode(ctx, msg, &payload) {
		return nil
	}

	return h.uc.ConsumeBlogCommented(ctx, usecase.ConsumeBlogCommentedInput{
		BlogID:      payload.BlogID,
		BlogTitle:   payload.BlogTitle,
		CommentID:   payload.CommentID,
		Excerpt:     payload.Excerpt,
		AuthorID:    payload.AuthorID,
		AuthorEmail: payload.AuthorEmail,
		ActorID:     payload.ActorID,
		ActorName:   payload.ActorName,
	})
}
