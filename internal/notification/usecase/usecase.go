package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type WelcomeEmail struct {
	To      string
	Name    string
	AppName string
	WebURL  string
}

type ActivityEmail struct {
	To       string
	Subject  string
	Headline string
	Body     string
	LinkURL  string
	AppName  string
}

type repoMail interface {
	SendWelcome(ctx context.Context, msg WelcomeEmail) error
	SendActivity(ctx context.Context, msg ActivityEmail) error
}

type repoDB interface {
	CreateNotification(ctx context.Context, n entity.Notification) error
	GetInbox(ctx context.Context, filter entity.InboxFilter) ([]entity.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, userID, id int64) error
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) appName() string {
	if name := s.cfg.GetString("app.name"); name != "" {
		return name
	}
	return "Quill"
}

func (s *Usecase) link(path string) string {
	return s.cfg.GetString("app.web_url") + path
}

// notify stores an in-app notification. Its error is returned so the broker
// redelivers the event.
func (s *Usecase) notify(ctx context.Context, n entity.Notification) error {
	n.ID = s.uid.Generate()
	n.CreatedAt = s.clock.Now()

	if err := s.repoDB.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "user_id", n.UserID, "kind", n.Kind, "error", err)
		return err
	}

	return nil
}

// sendActivity mails an activity email when enabled. Failures are only logged
// because the in-app notification already exists.
func (s *Usecase) sendActivity(ctx context.Context, msg ActivityEmail) {
	if !s.cfg.GetBool("modules.notification.email_activity") {
		return
	}

	msg.AppName = s.appName()
	if err := s.repoMail.SendActivity(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send activity email", "subject", msg.Subject, "error", err)
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
