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

type TOTPSetupOutput struct {
	Secret string
	URI    string
}

// TOTPSetup provisions a pending authenticator factor. The secret is shown
// once here and otherwise lives AES-GCM encrypted inside a totp_setup
// challenge until confirm proves the authenticator works.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	_, err := s.repoDB.GetConfirmedTOTPFactor(ctx, clm.UserID)
	if err == nil {
		return nil, goerror.NewBusiness("an authenticator is already configured", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, uri, err := s.totp.Generate(clm.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encrypted, err := s.encryptor.Encrypt([]byte(secret), crypt.Scope{UserID: clm.UserID, Purpose: crypt.PurposeTOTPSecret})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if _, err := s.repoDB.InvalidateActiveChallenges(ctx, clm.UserID, entity.ChallengePurposeTOTPSetup); err != nil {
		slog.ErrorContext(ctx, "failed to repo invalidate challenges", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateChallenge(ctx, entity.NewChallenge{
		ID:        s.uid.Generate(),
		UserID:    clm.UserID,
		Contact:   clm.UserEmail,
		Purpose:   entity.ChallengePurposeTOTPSetup,
		Code:      []byte{},
		ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.account.totp_setup_ttl_minutes")),
		Metadata:  map[string]any{"secret": base64.StdEncoding.EncodeToString(encrypted)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{
		Secret: secret,
		URI:    uri,
	}, nil
}
