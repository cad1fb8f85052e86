package inbound

import (
	"context"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/blog/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
)

type uc interface {
	BlogCreate(ctx context.Context, in usecase.BlogCreateInput) (*entity.Blog, error)
	BlogUpdate(ctx context.Context, in usecase.BlogUpdateInput) (*entity.BlogDetail, error)
	BlogDelete(ctx context.Context, in usecase.BlogDeleteInput) error
	BlogUpdateCover(ctx context.Context, in usecase.BlogUpdateCoverInput) (*usecase.BlogUpdateCoverOutput, error)
	BlogDetail(ctx context.Context, in usecase.BlogDetailInput) (*entity.BlogDetail, error)
	BlogList(ctx context.Context, in usecase.BlogListInput) (*usecase.BlogListOutput, error)
	BlogMine(ctx context.Context, in usecase.BlogMineInput) (*usecase.BlogListOutput, error)

	Like(ctx context.Context, in usecase.LikeInput) error
	Unlike(ctx context.Context, in usecase.UnlikeInput) error

	CommentCreate(ctx context.Context, in usecase.CommentCreateInput) (*entity.Comment, error)
	CommentUpdate(ctx context.Context, in usecase.CommentUpdateInput) (*entity.Comment, error)
	CommentDelete(ctx context.Context, in usecase.CommentDeleteInput) error
	CommentList(ctx context.Context, in usecase.CommentListInput) (*usecase.CommentListOutput, error)
}

// PublicEndpoints lists the routes reachable without a token, keyed by method.
var PublicEndpoints = map[string][]string{
	"GET": {
		"/api/v1/blog/bulk",
		"/api/v1/blog/post/:id",
		"/api/v1/blog/comment/:id",
	},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Posts
	r.POST("/api/v1/blog", end.BlogCreate)         // need authenticated
	r.GET("/api/v1/blog/my", end.BlogMine)         // need authenticated
	r.GET("/api/v1/blog/bulk", end.BlogList)       // public, following=true needs a token
	r.GET("/api/v1/blog/post/:id", end.BlogDetail) // public, drafts only for the author
	r.PUT("/api/v1/blog/post/:id", end.BlogUpdate)
	r.DELETE("/api/v1/blog/post/:id", end.BlogDelete)
	r.PUT("/api/v1/blog/post/:id/cover", end.BlogUpdateCover)

	// Likes (need authenticated)
	r.POST("/api/v1/blog/like", end.Like)
	r.POST("/api/v1/blog/unlike", end.Unlike)

	// Comments, GET takes the blog id and DELETE the comment id
	r.POST("/api/v1/blog/comment", end.CommentCreate)
	r.PUT("/api/v1/blog/comment", end.CommentUpdate)
	r.GET("/api/v1/blog/comment/:id", end.CommentList)
	r.DELETE("/api/v1/blog/comment/:id", end.CommentDelete)
}
