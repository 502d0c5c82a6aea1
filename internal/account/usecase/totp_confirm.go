package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/crypt"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type TOTPConfirmInput struct {
	Code string `validate:"required,passcode"`
}

// TOTPConfirm validates the first authenticator code against the pending
// setup challenge and, on success, persists the confirmed factor.
func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	chal, err := s.repoDB.GetLatestChallenge(ctx, clm.UserID, entity.ChallengePurposeTOTPSetup)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending totp setup", "user_id", clm.UserID)
		return goerror.NewBusiness("no pending authenticator setup", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest challenge", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.clock.Now().Before(chal.ExpiresAt) {
		slog.WarnContext(ctx, "totp setup challenge has expired", "user_id", clm.UserID)
		return goerror.NewBusiness("setup has expired, start again", goerror.CodeExpired)
	}

	attempts, err := s.repoDB.RecordChallengeAttempt(ctx, chal.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo record challenge attempt", "challenge_id", chal.ID, "error", err)
		return goerror.NewServer(err)
	}

	maxAttempts := int32(s.cfg.GetInt("modules.account.otp_max_attempts"))
	if attempts > maxAttempts {
		slog.WarnContext(ctx, "totp setup attempts exhausted", "user_id", clm.UserID)
		return goerror.NewBusiness("too many attempts, start again", goerror.CodeTooManyRequest)
	}

	encrypted, err := base64.StdEncoding.DecodeString(chal.Metadata.GetString("secret"))
	if err != nil || len(encrypted) == 0 {
		slog.ErrorContext(ctx, "totp setup challenge has no usable secret", "challenge_id", chal.ID, "error", err)
		return goerror.NewServer(errors.New("challenge metadata missing secret"))
	}

	secret, err := s.encryptor.Decrypt(encrypted, crypt.Scope{UserID: clm.UserID, Purpose: crypt.PurposeTOTPSecret})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "challenge_id", chal.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, string(secret), s.clock.Now()) {
		if attempts >= maxAttempts {
			slog.WarnContext(ctx, "totp setup attempts exhausted", "user_id", clm.UserID)
			return goerror.NewBusiness("too many attempts, start again", goerror.CodeTooManyRequest)
		}
		slog.WarnContext(ctx, "totp confirmation code mismatch", "user_id", clm.UserID)
		return goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	err = s.repoDB.ConfirmTOTPFactor(ctx, entity.TOTPFactor{
		ID:         s.uid.Generate(),
		UserID:     clm.UserID,
		Secret:     encrypted,
		KeyVersion: 1,
		Confirmed:  true,
	}, chal.ID)
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness("an authenticator is already configured", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo confirm totp factor", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
