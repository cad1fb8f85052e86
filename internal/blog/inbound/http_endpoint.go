package inbound

import (
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/blog/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

// HeaderIdempotencyKey lets clients retry post creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

type HTTPEndpoint struct {
	uc uc
}

// BlogCreate writes a new post for the current user.
// @Summary Create blog post
// @Tags Blog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client generated key, repeated keys are rejected"
// @Param request body BlogCreateRequest true "Blog payload"
// @Success 201 {object} router.successResponse{data=BlogResponse} "Post created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Not allowed to write"
// @Failure 409 {object} router.errorResponse "Duplicate idempotency key"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/blog [post]
func (h *HTTPEndpoint) BlogCreate(r *router.Request) (any, error) {
	var req BlogCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	blog, err := h.uc.BlogCreate(r.Context(), usecase.BlogCreateInput{
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
		Title:          req.Title,
		Content:        req.Content,
		Published:      req.Published,
	})
	if err != nil {
		return nil, err
	}

	return BlogCreateResponse{BlogResponse: toBlogResponse(*blog)}, nil
}

// BlogUpdate patches a post. Omitted fields are left unchanged.
// @Summary Update blog post
// @Tags Blog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Blog ID"
// @Param request body BlogUpdateRequest true "Fields to change"
// @Success 200 {object} router.successResponse{data=BlogDetailResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/blog/post/{id} [put]
func (h *HTTPEndpoint) BlogUpdate(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req BlogUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	detail, err := h.uc.BlogUpdate(r.Context(), usecase.BlogUpdateInput{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		return nil, err
	}

	return toBlogDetailResponse(*detail), nil
}

// BlogDelete removes a post with its likes and comments.
// @Summary Delete blog post
// @Tags Blog
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Success 204 "Deleted"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Router /api/v1/blog/post/{id} [delete]
func (h *HTTPEndpoint) BlogDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.BlogDelete(r.Context(), usecase.BlogDeleteInput{ID: id})
}

// BlogUpdateCover streams a cover image for a post.
// @Summary Upload blog cover
// @Tags Blog
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Blog ID"
// @Param cover formData file true "JPEG, PNG or WebP image"
// @Success 200 {object} router.successResponse{data=CoverResponse}
// @Failure 400 {object} router.errorResponse "Missing or invalid file"
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Failure 413 {object} router.errorResponse "File too large"
// @Router /api/v1/blog/post/{id}/cover [put]
func (h *HTTPEndpoint) BlogUpdateCover(r *router.Request) (any, error) {
	ctx := r.Context()

	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	file, err := r.StreamSingleFile("cover")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	resp, err := h.uc.BlogUpdateCover(ctx, usecase.BlogUpdateCoverInput{ID: id, File: file})
	if err != nil {
		return nil, err
	}

	return CoverResponse{CoverURL: resp.CoverURL}, nil
}

// BlogDetail returns a post with its author and counters.
// @Summary Blog detail
// @Tags Blog
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {object} router.successResponse{data=BlogDetailResponse}
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Router /api/v1/blog/post/{id} [get]
func (h *HTTPEndpoint) BlogDetail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	detail, err := h.uc.BlogDetail(r.Context(), usecase.BlogDetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toBlogDetailResponse(*detail), nil
}

// BlogList is the public feed.
// @Summary List blog posts
// @Tags Blog
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 50"
// @Param author_id query string false "Only posts by this author"
// @Param following query bool false "Only authors the caller follows"
// @Success 200 {object} router.successResponse{data=BlogsResponse}
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "following requires a token"
// @Router /api/v1/blog/bulk [get]
func (h *HTTPEndpoint) BlogList(r *router.Request) (any, error) {
	page, err := pageRequest(r)
	if err != nil {
		return nil, err
	}

	authorID, err := r.GetQueryInt64("author_id")
	if err != nil {
		return nil, err
	}

	following, err := r.GetQueryBool("following")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.BlogList(r.Context(), usecase.BlogListInput{
		AuthorID:  authorID,
		Following: following,
		Request:   page,
	})
	if err != nil {
		return nil, err
	}

	return toBlogsResponse(resp), nil
}

// BlogMine lists the caller's posts including drafts.
// @Summary My blog posts
// @Tags Blog
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 50"
// @Success 200 {object} router.successResponse{data=BlogsResponse}
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/blog/my [get]
func (h *HTTPEndpoint) BlogMine(r *router.Request) (any, error) {
	page, err := pageRequest(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.BlogMine(r.Context(), usecase.BlogMineInput{Request: page})
	if err != nil {
		return nil, err
	}

	return toBlogsResponse(resp), nil
}

// Like marks a post as liked by the current user.
// @Summary Like blog post
// @Tags Blog
// @Security BearerAuth
// @Accept json
// @Param request body LikeRequest true "Blog to like"
// @Success 204 "Liked"
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Router /api/v1/blog/like [post]
func (h *HTTPEndpoint) Like(r *router.Request) (any, error) {
	var req LikeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Like(r.Context(), usecase.LikeInput{BlogID: req.BlogID})
}

// @Summary Unlike blog post
// @Tags Blog
// @Security BearerAuth
// @Accept json
// @Param request body LikeRequest true "Blog to unlike"
// @Success 204 "Unliked"
// @Router /api/v1/blog/unlike [post]
func (h *HTTPEndpoint) Unlike(r *router.Request) (any, error) {
	var req LikeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Unlike(r.Context(), usecase.UnlikeInput{BlogID: req.BlogID})
}

// CommentCreate adds a comment to a visible post.
// @Summary Create comment
// @Tags Comment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CommentCreateRequest true "Comment payload"
// @Success 201 {object} router.successResponse{data=CommentResponse}
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/blog/comment [post]
func (h *HTTPEndpoint) CommentCreate(r *router.Request) (any, error) {
	var req CommentCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	comment, err := h.uc.CommentCreate(r.Context(), usecase.CommentCreateInput{
		BlogID:  req.BlogID,
		Content: req.Content,
	})
	if err != nil {
		return nil, err
	}

	resp := toCommentResponse(*comment)
	resp.created = true
	return resp, nil
}

// @Summary Update comment
// @Tags Comment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CommentUpdateRequest true "Comment payload"
// @Success 200 {object} router.successResponse{data=CommentResponse}
// @Failure 404 {object} router.errorResponse "Comment not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/blog/comment [put]
func (h *HTTPEndpoint) CommentUpdate(r *router.Request) (any, error) {
	var req CommentUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	comment, err := h.uc.CommentUpdate(r.Context(), usecase.CommentUpdateInput{
		CommentID: req.CommentID,
		Content:   req.Content,
	})
	if err != nil {
		return nil, err
	}

	return toCommentResponse(*comment), nil
}

// @Summary Delete comment
// @Tags Comment
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 204 "Deleted"
// @Failure 404 {object} router.errorResponse "Comment not found"
// @Router /api/v1/blog/comment/{id} [delete]
func (h *HTTPEndpoint) CommentDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.CommentDelete(r.Context(), usecase.CommentDeleteInput{ID: id})
}

// CommentList pages through the comments of a post, oldest first.
// @Summary List comments
// @Tags Comment
// @Produce json
// @Param id path string true "Blog ID"
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 50"
// @Success 200 {object} router.successResponse{data=CommentsResponse}
// @Failure 404 {object} router.errorResponse "Blog not found"
// @Router /api/v1/blog/comment/{id} [get]
func (h *HTTPEndpoint) CommentList(r *router.Request) (any, error) {
	blogID, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	page, err := pageRequest(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.CommentList(r.Context(), usecase.CommentListInput{BlogID: blogID, Request: page})
	if err != nil {
		return nil, err
	}

	return CommentsResponse{
		Comments: lo.Map(resp.Comments, func(c entity.Comment, _ int) CommentResponse { return toCommentResponse(c) }),
		meta:     resp.Meta,
	}, nil
}

func pageRequest(r *router.Request) (pagination.Request, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return pagination.Request{}, err
	}

	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return pagination.Request{}, err
	}

	return pagination.Request{Page: page, Limit: limit}, nil
}

func toBlogsResponse(out *usecase.BlogListOutput) BlogsResponse {
	return BlogsResponse{
		Blogs: lo.Map(out.Blogs, func(d entity.BlogDetail, _ int) BlogDetailResponse { return toBlogDetailResponse(d) }),
		meta:  out.Meta,
	}
}
