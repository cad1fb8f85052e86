package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/hash"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type UserRegisteredEvent struct {
	UserID   int64
	Username string
	Name     string
}

type UserFollowedEvent struct {
	FollowerID     int64
	FollowerName   string
	FollowingID    int64
	FollowingEmail string
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishUserFollowed(ctx context.Context, msg UserFollowedEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserCredential(ctx context.Context, username string) (*entity.UserCredential, error)
	GetUserProfile(ctx context.Context, id, viewerID int64) (*entity.UserProfile, error)
	GetUserList(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error)
	GetUserRefreshToken(ctx context.Context, token string) (*entity.UserRefreshToken, error)
	GetFollowers(ctx context.Context, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error)
	GetFollowing(ctx context.Context, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error)

	NewUser(ctx context.Context, user entity.User, hash string) error
	CreateRefreshToken(ctx context.Context, in entity.RefreshToken) error
	CreateFollow(ctx context.Context, in entity.Follow) (bool, error)

	PatchUser(ctx context.Context, patch entity.UserPatch) error
	UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) error
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, userID int64, token string) error
	RevokeAllRefreshToken(ctx context.Context, userID int64) error

	DeleteFollow(ctx context.Context, followerID, followingID int64) error
}

type denylist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	denylist      denylist
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	credential    hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	tokenID       uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Denylist      denylist
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	// Credential derives and verifies stored passwords (PBKDF2).
	Credential hash.Hash
	UID        uid.NumberID
	UUID       uid.StringID
	TokenID    uid.StringID
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Enforcer   *casbin.Enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		denylist:      dep.Denylist,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		credential:    dep.Credential,
		uid:           dep.UID,
		uuid:          dep.UUID,
		tokenID:       dep.TokenID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// viewerID is the caller's user id, or 0 for anonymous requests.
func viewerID(ctx context.Context) int64 {
	if clm := jwt.GetAuth(ctx); clm != nil {
		return clm.UserID
	}
	return 0
}

type TokenOutput struct {
	AccessToken  string
	RefreshToken string
	User         entity.User
}

// issueTokens signs an access token and persists a fresh refresh token.
func (s *Usecase) issueTokens(ctx context.Context, user entity.User) (*TokenOutput, error) {
	acToken, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refToken := s.tokenID.Generate()
	refTokenHash, err := s.hmac.Hash(refToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Token:     string(refTokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.refresh_token_ttl_days")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token user", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TokenOutput{
		AccessToken:  acToken,
		RefreshToken: refToken,
		User:         user,
	}, nil
}

func subject(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
