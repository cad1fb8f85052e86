package inbound

import (
	"context"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/identity/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.TokenOutput, error)
	Signin(ctx context.Context, in usecase.SigninInput) (*usecase.TokenOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	Me(ctx context.Context) (*entity.UserProfile, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) (*usecase.ProfileUpdateAvatarOutput, error)
	ProfilePermissions(ctx context.Context) (map[string][]string, error)

	UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error)
	UserDetail(ctx context.Context, in usecase.UserDetailInput) (*entity.UserProfile, error)

	Follow(ctx context.Context, in usecase.FollowInput) error
	Unfollow(ctx context.Context, in usecase.UnfollowInput) error
	Followers(ctx context.Context, in usecase.FollowListInput) (*usecase.FollowListOutput, error)
	Following(ctx context.Context, in usecase.FollowListInput) (*usecase.FollowListOutput, error)
}

// PublicEndpoints lists the routes reachable without a token, keyed by method.
var PublicEndpoints = map[string][]string{
	"POST": {
		"/api/v1/user/signup",
		"/api/v1/user/signin",
		"/api/v1/user/refresh",
	},
	"GET": {
		"/api/v1/user/bulk",
		"/api/v1/user/profile/:id",
		"/api/v1/user/profile/:id/followers",
		"/api/v1/user/profile/:id/following",
	},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Authentication
	r.POST("/api/v1/user/signup", end.Signup)
	r.POST("/api/v1/user/signin", end.Signin)
	r.POST("/api/v1/user/refresh", end.RefreshToken)
	r.POST("/api/v1/user/logout", end.Logout) // need authenticated

	// Profile (need authenticated)
	r.GET("/api/v1/user/me", end.Me)
	r.PUT("/api/v1/user/update", end.ProfileUpdate)
	r.PUT("/api/v1/user/avatar", end.ProfileUpdateAvatar)
	r.GET("/api/v1/user/permissions", end.ProfilePermissions)

	// Follow graph
	r.POST("/api/v1/user/follow", end.Follow)     // need authenticated
	r.POST("/api/v1/user/unfollow", end.Unfollow) // need authenticated

	// Directory (public, optional auth)
	r.GET("/api/v1/user/bulk", end.UserList)
	r.GET("/api/v1/user/profile/:id", end.UserDetail)
	r.GET("/api/v1/user/profile/:id/followers", end.Followers)
	r.GET("/api/v1/user/profile/:id/following", end.Following)
}
