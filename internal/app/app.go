package app

import (
	"context"
	"net/http"

	"github.com/inkflow/inkflow/internal/pkg/clock"
	"github.com/inkflow/inkflow/internal/pkg/config"
	"github.com/inkflow/inkflow/internal/pkg/crypt"
	"github.com/inkflow/inkflow/internal/pkg/goroutine"
	"github.com/inkflow/inkflow/internal/pkg/hash"
	"github.com/inkflow/inkflow/internal/pkg/idempotency"
	"github.com/inkflow/inkflow/internal/pkg/instrument"
	"github.com/inkflow/inkflow/internal/pkg/mail"
	"github.com/inkflow/inkflow/internal/pkg/messaging"
	"github.com/inkflow/inkflow/internal/pkg/passcode"
	"github.com/inkflow/inkflow/internal/pkg/router"
	"github.com/inkflow/inkflow/internal/pkg/storage"
	"github.com/inkflow/inkflow/internal/pkg/token"
	"github.com/inkflow/inkflow/internal/pkg/totp"
	"github.com/inkflow/inkflow/internal/pkg/uid"
	"github.com/inkflow/inkflow/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	totp      totp.TOTPer
	passcode  passcode.Generator
	encryptor crypt.Encryptor

	// tokens
	accessToken   token.Issuer
	recoveryToken token.Issuer

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Publisher
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initTokens()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
