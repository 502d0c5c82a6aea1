package account

import (
	"context"

	"github.com/inkflow/inkflow/internal/account/inbound"
	"github.com/inkflow/inkflow/internal/account/outbound/db"
	"github.com/inkflow/inkflow/internal/account/outbound/email"
	"github.com/inkflow/inkflow/internal/account/outbound/mq"
	"github.com/inkflow/inkflow/internal/account/usecase"
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
)

type Dependency struct {
	Ctx           context.Context            `validate:"required"`
	DBConn        *pgxpool.Pool              `validate:"required"`
	Goroutine     *goroutine.Manager         `validate:"required"`
	Router        *router.Router             `validate:"required"`
	Idempotency   idempotency.Idempotency    `validate:"required"`
	Messaging     messaging.Publisher        `validate:"required"`
	Storage       storage.Storage            `validate:"required"`
	Mail          mail.Mail                  `validate:"required"`
	Config        config.Config              `validate:"required"`
	Instrument    instrument.Instrumentation `validate:"required"`
	UID           uid.NumberID               `validate:"required"`
	UUID          uid.StringID               `validate:"required"`
	OID           uid.StringID               `validate:"required"`
	HMAC          hash.Hash                  `validate:"required"`
	Bcrypt        hash.Hash                  `validate:"required"`
	Encryptor     crypt.Encryptor            `validate:"required"`
	Passcode      passcode.Generator         `validate:"required"`
	Clock         clock.Clocker              `validate:"required"`
	Totp          totp.TOTPer                `validate:"required"`
	Validator     validator.Validator        `validate:"required"`
	AccessToken   token.Issuer               `validate:"required"`
	RecoveryToken token.Issuer               `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoEmail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		RepoEmail:     repoEmail,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		Encryptor:     dep.Encryptor,
		Passcode:      dep.Passcode,
		UID:           dep.UID,
		UUID:          dep.UUID,
		OID:           dep.OID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		AccessToken:   dep.AccessToken,
		RecoveryToken: dep.RecoveryToken,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	uc.StartCleanupSweeper(dep.Ctx)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
