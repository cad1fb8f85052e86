package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
	created      bool
}

func (r TokenResponse) StatusCode() int {
	if r.created {
		return http.StatusCreated
	}
	return http.StatusOK
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ProfileUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

type FollowRequest struct {
	FollowingID int64 `json:"following_id,string"`
}

type UserResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

type ProfileResponse struct {
	UserResponse
	BlogCount      int64 `json:"blog_count"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
}

func toProfileResponse(p *entity.UserProfile) ProfileResponse {
	return ProfileResponse{
		UserResponse:   toUserResponse(p.User),
		BlogCount:      p.BlogCount,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		IsFollowing:    p.IsFollowing,
	}
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
	meta  pagination.Meta
}

func (r UsersResponse) Meta() map[string]any {
	return r.meta.Map()
}

type FollowUserResponse struct {
	UserResponse
	FollowedAt time.Time `json:"followed_at"`
}

type FollowUsersResponse struct {
	Users []FollowUserResponse `json:"users"`
	meta  pagination.Meta
}

func (r FollowUsersResponse) Meta() map[string]any {
	return r.meta.Map()
}

type PermissionsResponse struct {
	Permissions map[string][]string `json:"permissions"`
}
