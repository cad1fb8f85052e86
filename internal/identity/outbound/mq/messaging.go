package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/quill/internal/identity/usecase"
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

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserRegistered")
	defer span.End()

	return m.publish(ctx, span, event.UserRegisteredDestination, event.UserRegisteredMessage{
		UserID:   msg.UserID,
		Username: msg.Username,
		Name:     msg.Name,
	})
}

func (m *Messaging) PublishUserFollowed(ctx context.Context, msg usecase.UserFollowedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserFollowed")
	defer span.End()

	return m.publish(ctx, span, event.UserFollowedDestination, event.UserFollowedMessage{
		FollowerID:     msg.FollowerID,
		FollowerName:   msg.FollowerName,
		FollowingID:    msg.FollowingID,
		FollowingEmail: msg.FollowingEmail,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, topic, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: instrument.GetCorrelationID(ctx)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
