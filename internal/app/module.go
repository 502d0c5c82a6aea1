package app

import (
	"log/slog"
	"os"

	"github.com/inkflow/inkflow/internal/account"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.account.enabled") {
		if err := account.New(account.Dependency{
			Ctx:           a.ctx,
			DBConn:        a.dbConn,
			Goroutine:     a.goroutine,
			Router:        a.router,
			Idempotency:   a.idemp,
			Messaging:     a.messaging,
			Storage:       a.storage,
			Mail:          a.mail,
			Config:        a.config,
			Instrument:    a.ins,
			UID:           a.uid,
			UUID:          a.uuid,
			OID:           a.oid,
			HMAC:          a.hmac,
			Bcrypt:        a.bcrypt,
			Encryptor:     a.encryptor,
			Passcode:      a.passcode,
			Clock:         a.clock,
			Totp:          a.totp,
			Validator:     a.validator,
			AccessToken:   a.accessToken,
			RecoveryToken: a.recoveryToken,
		}); err != nil {
			slog.Error("failed to init module account", "error", err)
			os.Exit(1)
		}
	}
}
