package blog

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/quill/internal/blog/inbound"
	"github.com/shandysiswandi/quill/internal/blog/outbound/db"
	"github.com/shandysiswandi/quill/internal/blog/outbound/mq"
	"github.com/shandysiswandi/quill/internal/blog/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/idempotency"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/messaging"
	"github.com/shandysiswandi/quill/internal/pkg/router"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

var PublicEndpoints = inbound.PublicEndpoints

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Enforcer    *casbin.Enforcer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
