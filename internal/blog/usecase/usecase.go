package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/idempotency"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
	"github.com/shandysiswandi/quill/internal/shared/constant"
	"go.opentelemetry.io/otel/trace"
)

type BlogLikedEvent struct {
	BlogID      int64
	BlogTitle   string
	AuthorID    int64
	AuthorEmail string
	ActorID     int64
	ActorName   string
}

type BlogCommentedEvent struct {
	BlogID      int64
	BlogTitle   string
	CommentID   int64
	Excerpt     string
	AuthorID    int64
	AuthorEmail string
	ActorID     int64
	ActorName   string
}

type repoMessaging interface {
	PublishBlogLiked(ctx context.Context, msg BlogLikedEvent) error
	PublishBlogCommented(ctx context.Context, msg BlogCommentedEvent) error
}

type repoDB interface {
	GetBlog(ctx context.Context, id int64) (*entity.Blog, error)
	GetBlogDetail(ctx context.Context, id, viewerID int64) (*entity.BlogDetail, error)
	GetBlogList(ctx context.Context, filter entity.BlogListFilter) ([]entity.BlogDetail, int64, error)
	GetAuthor(ctx context.Context, id int64) (*entity.Author, error)
	GetComment(ctx context.Context, id int64) (*entity.Comment, error)
	GetCommentList(ctx context.Context, filter entity.CommentListFilter) ([]entity.Comment, int64, error)

	CreateBlog(ctx context.Context, blog entity.Blog) error
	CreateLike(ctx context.Context, like entity.Like) (bool, error)
	CreateComment(ctx context.Context, comment entity.Comment) error

	PatchBlog(ctx context.Context, patch entity.BlogPatch) error
	UpdateBlogCover(ctx context.Context, id int64, coverURL string) error
	UpdateComment(ctx context.Context, comment entity.Comment) error

	DeleteBlog(ctx context.Context, id int64) error
	DeleteLike(ctx context.Context, blogID, userID int64) error
	DeleteComment(ctx context.Context, id int64) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idempotency   idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idempotency:   dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("blog.usecase").Start(ctx, name)
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

// canModerate reports whether userID holds the moderate action on obj.
func (s *Usecase) canModerate(ctx context.Context, userID int64, obj string) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	ok, err := s.enforcer.Enforce(subject(userID), obj, constant.PermActModerate)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enforce moderate permission", "user_id", userID, "object", obj, "error", err)
		return false, goerror.NewServer(err)
	}
	return ok, nil
}

// ownedBlog loads a post the caller may change: their own, or any post when
// they moderate blogs. Everyone else sees not found.
func (s *Usecase) ownedBlog(ctx context.Context, userID, blogID int64) (*entity.Blog, error) {
	blog, err := s.repoDB.GetBlog(ctx, blogID)
	if err != nil {
		return nil, s.blogNotFound(ctx, blogID, err)
	}
	if blog.AuthorID == userID {
		return blog, nil
	}

	ok, err := s.canModerate(ctx, userID, constant.PermBlog)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.WarnContext(ctx, "blog access denied", "blog_id", blogID, "user_id", userID)
		return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	}

	return blog, nil
}

func (s *Usecase) blogNotFound(ctx context.Context, blogID int64, err error) error {
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "blog not found", "blog_id", blogID)
		return goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	}

	slog.ErrorContext(ctx, "failed to repo get blog", "blog_id", blogID, "error", err)
	return goerror.NewServer(err)
}

// subject is the casbin subject of a user.
func subject(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
