package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/notification/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

// HTTPEndpoint serves the in-app inbox of the current user.
type HTTPEndpoint struct {
	uc ucInbox
}

// Inbox lists notifications, newest first.
// @Summary List notifications
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 50"
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} router.successResponse{data=InboxResponse} "meta carries unread_count"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox [get]
func (h *HTTPEndpoint) Inbox(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	unread, err := r.GetQueryBool("unread")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.Inbox(r.Context(), usecase.InboxInput{
		UnreadOnly: unread,
		Request:    pagination.Request{Page: page, Limit: limit},
	})
	if err != nil {
		return nil, err
	}

	return InboxResponse{
		Notifications: lo.Map(out.Notifications, func(n entity.Notification, _ int) NotificationResponse {
			return toNotificationResponse(n)
		}),
		meta:        out.Meta,
		unreadCount: out.UnreadCount,
	}, nil
}

// @Summary Mark notification read
// @Tags Notification
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "Marked"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Router /api/v1/notification/inbox/{id}/read [patch]
func (h *HTTPEndpoint) MarkRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.InboxMarkRead(r.Context(), usecase.InboxMarkReadInput{ID: id})
}

// @Summary Mark all notifications read
// @Tags Notification
// @Security BearerAuth
// @Success 204 "Marked"
// @Router /api/v1/notification/inbox/read-all [put]
func (h *HTTPEndpoint) MarkAllRead(r *router.Request) (any, error) {
	return nil, h.uc.InboxMarkAllRead(r.Context())
}

// @Summary Delete notification
// @Tags Notification
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "Deleted"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Router /api/v1/notification/inbox/{id} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.InboxDelete(r.Context(), usecase.InboxDeleteInput{ID: id})
}
