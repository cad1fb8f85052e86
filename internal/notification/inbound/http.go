package inbound

import (
	"context"

	"github.com/shandysiswandi/quill/internal/notification/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
)

type ucConsumer interface {
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
	ConsumeUserFollowed(ctx context.Context, in usecase.ConsumeUserFollowedInput) error
	ConsumeBlogLiked(ctx context.Context, in usecase.ConsumeBlogLikedInput) error
	ConsumeBlogCommented(ctx context.Context, in usecase.ConsumeBlogCommentedInput) error
}

type ucInbox interface {
	Inbox(ctx context.Context, in usecase.InboxInput) (*usecase.InboxOutput, error)
	InboxMarkRead(ctx context.Context, in usecase.InboxMarkReadInput) error
	InboxMarkAllRead(ctx context.Context) error
	InboxDelete(ctx context.Context, in usecase.InboxDeleteInput) error
}

// PublicEndpoints is empty: every inbox route needs a token.
var PublicEndpoints = map[string][]string{}

func RegisterHTTPEndpoint(r *router.Router, uc ucInbox) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notification/inbox", end.Inbox)
	r.PATCH("/api/v1/notification/inbox/:id/read", end.MarkRead)
	r.PUT("/api/v1/notification/inbox/read-all", end.MarkAllRead)
	r.DELETE("/api/v1/notification/inbox/:id", end.Delete)
}
