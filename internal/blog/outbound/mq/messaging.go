package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/quill/internal/blog/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/messaging"
	"github.com/shandysiswandi/quill/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishBlogLiked(ctx context.Context, msg usecase.BlogLikedEvent) error {
	ctx, span := m.ins.Tracer("blog.outbound.mq").Start(ctx, "PublishBlogLiked")
	defer span.End()

	return m.publish(ctx, span, event.BlogLikedDestination, event.BlogLikedMessage{
		BlogID:      msg.BlogID,
		BlogTitle:   msg.BlogTitle,
		AuthorID:    msg.AuthorID,
		AuthorEmail: msg.AuthorEmail,
		ActorID:     msg.ActorID,
		ActorName:   msg.ActorName,
	})
}

func (m *Messaging) PublishBlogCommented(ctx context.Context, msg usecase.BlogCommentedEvent) error {
	ctx, span := m.ins.Tracer("blog.outbound.mq").Start(ctx, "PublishBlogCommented")
	defer span.End()

	return m.publish(ctx, span, event.BlogCommentedDestination, event.BlogCommentedMessage{
		BlogID:      msg.BlogID,
		BlogTitle:   msg.BlogTitle,
		CommentID:   msg.CommentID,
		Excerpt:     msg.Excerpt,
		AuthorID:    msg.AuthorID,
		AuthorEmail: msg.AuthorEmail,
		ActorID:     msg.ActorID,
		ActorName:   msg.ActorName,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = m.client.Publish(ctx, topic, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: instrument.GetCorrelationID(ctx)}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
