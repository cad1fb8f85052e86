package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type BlogCreateRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

type BlogUpdateRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type LikeRequest struct {
	BlogID int64 `json:"blog_id,string"`
}

type CommentCreateRequest struct {
	BlogID  int64  `json:"blog_id,string"`
	Content string `json:"content"`
}

type CommentUpdateRequest struct {
	CommentID int64  `json:"comment_id,string"`
	Content   string `json:"content"`
}

type AuthorResponse struct {
	ID        int64  `json:"id,string"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

func toAuthorResponse(a entity.Author) AuthorResponse {
	return AuthorResponse{
		ID:        a.ID,
		Name:      a.Name,
		Username:  a.Username,
		AvatarURL: a.AvatarURL,
	}
}

type BlogResponse struct {
	ID        int64     `json:"id,string"`
	AuthorID  int64     `json:"author_id,string"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CoverURL  string    `json:"cover_url"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBlogResponse(b entity.Blog) BlogResponse {
	return BlogResponse{
		ID:        b.ID,
		AuthorID:  b.AuthorID,
		Title:     b.Title,
		Content:   b.Content,
		CoverURL:  b.CoverURL,
		Published: b.Published,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type BlogCreateResponse struct {
	BlogResponse
}

func (BlogCreateResponse) StatusCode() int { return http.StatusCreated }

type BlogDetailResponse struct {
	BlogResponse
	Author       AuthorResponse `json:"author"`
	LikeCount    int64          `json:"like_count"`
	CommentCount int64          `json:"comment_count"`
	LikedByMe    bool           `json:"liked_by_me"`
}

func toBlogDetailResponse(d entity.BlogDetail) BlogDetailResponse {
	return BlogDetailResponse{
		BlogResponse: toBlogResponse(d.Blog),
		Author:       toAuthorResponse(d.Author),
		LikeCount:    d.LikeCount,
		CommentCount: d.CommentCount,
		LikedByMe:    d.LikedByMe,
	}
}

type BlogsResponse struct {
	Blogs []BlogDetailResponse `json:"blogs"`
	meta  pagination.Meta
}

func (r BlogsResponse) Meta() map[string]any {
	return r.meta.Map()
}

type CoverResponse struct {
	CoverURL string `json:"cover_url"`
}

type CommentResponse struct {
	ID        int64          `json:"id,string"`
	BlogID    int64          `json:"blog_id,string"`
	Content   string         `json:"content"`
	Author    AuthorResponse `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	created   bool
}

func (r CommentResponse) StatusCode() int {
	if r.created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func toCommentResponse(c entity.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		BlogID:    c.BlogID,
		Content:   c.Content,
		Author:    toAuthorResponse(c.Author),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type CommentsResponse struct {
	Comments []CommentResponse `json:"comments"`
	meta     pagination.Meta
}

func (r CommentsResponse) Meta() map[string]any {
	return r.meta.Map()
}
