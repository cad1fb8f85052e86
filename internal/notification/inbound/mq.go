package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goroutine"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/messaging"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/shared/event"
)

type mqConsumer struct {
	group   string
	topic   string
	handler messaging.Handler
}

func consumers(h *MQHandler) []mqConsumer {
	return []mqConsumer{
		{group: event.UserRegisteredConsumerNotification, topic: event.UserRegisteredDestination, handler: h.UserRegistered},
		{group: event.UserFollowedConsumerNotification, topic: event.UserFollowedDestination, handler: h.UserFollowed},
		{group: event.BlogLikedConsumerNotification, topic: event.BlogLikedDestination, handler: h.BlogLiked},
		{group: event.BlogCommentedConsumerNotification, topic: event.BlogCommentedDestination, handler: h.BlogCommented},
	}
}

// RegisterMQConsumer starts one goroutine per topic. When
// modules.notification.consumer_names is set, only the listed groups run.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	handler := &MQHandler{uc: uc, uuid: uuid, ins: ins}
	enabled := cfg.GetArray("modules.notification.consumer_names")

	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	for _, c := range consumers(handler) {
		if len(enabled) > 0 && !slices.Contains(enabled, c.group) {
			slog.InfoContext(ctx, "consumer disabled by config", "consumer", c.group)
			continue
		}

		err := routine.Go(ctx, func(ctx context.Context) error {
			slog.InfoContext(ctx, "running consumer", "consumer", c.group, "topic", c.topic)
			return consumer.Consume(ctx, c.topic, c.handler,
				messaging.WithGroup(c.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", c.group, "error", err)
		}
	}
}
