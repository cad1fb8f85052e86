package inbound

import (
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/identity/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/router"
	"github.com/shandysiswandi/quill/internal/shared/pagination"
)

// HTTPEndpoint exposes HTTP handlers for accounts, profiles and the follow graph.
type HTTPEndpoint struct {
	uc uc
}

// Signup creates an account and signs it in.
// @Summary Sign up
// @Description Creates a user with a username (email) and password and returns a token pair.
// @Tags User, Authentication
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} router.successResponse{data=TokenResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Username already taken"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/signup [post]
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signup(r.Context(), usecase.SignupInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return nil, err
	}

	return TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         toUserResponse(resp.User),
		created:      true,
	}, nil
}

// Signin authenticates a user with username and password.
// @Summary Sign in
// @Tags User, Authentication
// @Accept json
// @Produce json
// @Param request body SigninRequest true "Signin payload"
// @Success 200 {object} router.successResponse{data=TokenResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid username or password"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/signin [post]
func (h *HTTPEndpoint) Signin(r *router.Request) (any, error) {
	var req SigninRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signin(r.Context(), usecase.SigninInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         toUserResponse(resp.User),
	}, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
// @Summary Refresh tokens
// @Tags User, Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "New token pair"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout revokes the refresh token and the current access token.
// @Summary Log out
// @Tags User, Authentication
// @Security BearerAuth
// @Accept json
// @Param request body LogoutRequest true "Logout payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken})
}

// Me returns the authenticated user's profile.
// @Summary Get my profile
// @Tags User, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return toProfileResponse(resp), nil
}

// @Summary Update profile
// @Description Updates name, username and/or password. A password change signs out every session.
// @Tags User, Profile
// @Security BearerAuth
// @Accept json
// @Param request body ProfileUpdateRequest true "Fields to change"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Username already taken"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/update [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
}

// ProfileUpdateAvatar uploads a new avatar for the current user.
// @Summary Update profile avatar
// @Tags User, Profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image (jpeg, png or webp, max 2 MiB)"
// @Success 200 {object} router.successResponse{data=AvatarResponse} "Avatar URL"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	resp, err := h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{File: file})
	if err != nil {
		return nil, err
	}

	return AvatarResponse{AvatarURL: resp.AvatarURL}, nil
}

// @Summary Get my permissions
// @Description Returns the casbin permissions of the current user grouped by object.
// @Tags User, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=PermissionsResponse} "Permissions"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/permissions [get]
func (h *HTTPEndpoint) ProfilePermissions(r *router.Request) (any, error) {
	resp, err := h.uc.ProfilePermissions(r.Context())
	if err != nil {
		return nil, err
	}

	return PermissionsResponse{Permissions: resp}, nil
}

// @Summary Follow a user
// @Tags User, Follow
// @Security BearerAuth
// @Accept json
// @Param request body FollowRequest true "User to follow"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/follow [post]
func (h *HTTPEndpoint) Follow(r *router.Request) (any, error) {
	var req FollowRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Follow(r.Context(), usecase.FollowInput{FollowingID: req.FollowingID})
}

// @Summary Unfollow a user
// @Tags User, Follow
// @Security BearerAuth
// @Accept json
// @Param request body FollowRequest true "User to unfollow"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/unfollow [post]
func (h *HTTPEndpoint) Unfollow(r *router.Request) (any, error) {
	var req FollowRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Unfollow(r.Context(), usecase.UnfollowInput{FollowingID: req.FollowingID})
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

// @Summary Search users
// @Tags User, Directory
// @Produce json
// @Param search query string false "Name or username contains (case-insensitive)"
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, 1-50"
// @Success 200 {object} router.successResponse{data=UsersResponse} "User list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/bulk [get]
func (h *HTTPEndpoint) UserList(r *router.Request) (any, error) {
	page, err := pageRequest(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.UserList(r.Context(), usecase.UserListInput{
		Search:  r.GetQuery("search"),
		Request: page,
	})
	if err != nil {
		return nil, err
	}

	return UsersResponse{
		Users: lo.Map(resp.Users, func(u entity.User, _ int) UserResponse { return toUserResponse(u) }),
		meta:  resp.Meta,
	}, nil
}

// @Summary Get user profile
// @Description Public profile with counters. is_following is set for authenticated callers.
// @Tags User, Directory
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 400 {object} router.errorResponse "Invalid path parameter"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/profile/{id} [get]
func (h *HTTPEndpoint) UserDetail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.UserDetail(r.Context(), usecase.UserDetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toProfileResponse(resp), nil
}

// @Summary List followers
// @Tags User, Follow
// @Produce json
// @Param id path int true "User ID"
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, 1-50"
// @Success 200 {object} router.successResponse{data=FollowUsersResponse} "Followers"
// @Failure 400 {object} router.errorResponse "Invalid parameters"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/profile/{id}/followers [get]
func (h *HTTPEndpoint) Followers(r *router.Request) (any, error) {
	in, err := followListInput(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Followers(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return toFollowUsersResponse(resp), nil
}

// @Summary List followed users
// @Tags User, Follow
// @Produce json
// @Param id path int true "User ID"
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, 1-50"
// @Success 200 {object} router.successResponse{data=FollowUsersResponse} "Following"
// @Failure 400 {object} router.errorResponse "Invalid parameters"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/user/profile/{id}/following [get]
func (h *HTTPEndpoint) Following(r *router.Request) (any, error) {
	in, err := followListInput(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Following(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return toFollowUsersResponse(resp), nil
}

func followListInput(r *router.Request) (usecase.FollowListInput, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return usecase.FollowListInput{}, err
	}

	page, err := pageRequest(r)
	if err != nil {
		return usecase.FollowListInput{}, err
	}

	return usecase.FollowListInput{UserID: id, Request: page}, nil
}

func toFollowUsersResponse(resp *usecase.FollowListOutput) FollowUsersResponse {
	return FollowUsersResponse{
		Users: lo.Map(resp.Users, func(u entity.FollowUser, _ int) FollowUserResponse {
			return FollowUserResponse{UserResponse: toUserResponse(u.User), FollowedAt: u.FollowedAt}
		}),
		meta: resp.Meta,
	}
}
