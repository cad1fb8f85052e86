package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/denylist"
	"github.com/shandysiswandi/quill/internal/pkg/goroutine"
	"github.com/shandysiswandi/quill/internal/pkg/hash"
	"github.com/shandysiswandi/quill/internal/pkg/idempotency"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/mail"
	"github.com/shandysiswandi/quill/internal/pkg/messaging"
	"github.com/shandysiswandi/quill/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/quill/internal/pkg/router"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/uid"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	hmac       hash.Hash
	credential hash.Hash
	uid        uid.NumberID
	uuid       uid.StringID
	tokenID    uid.StringID
	jwt        jwt.JWT

	// resources
	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	idemp         idempotency.Idempotency
	denylist      *denylist.Redis
	mail          mail.Mail
	messaging     messaging.Messaging
	storage       storage.Storage
	casbin        *casbin.Enforcer
	casbinWatcher *pgxcasbin.Watcher

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application and exits the process on any failure.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initMigrations()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
