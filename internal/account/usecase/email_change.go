package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type EmailChangeInput struct {
	NewEmail string `validate:"required,email"`
}

type EmailChangeOutput struct {
	ExpiresIn int64
}

// EmailChange opens an email_change challenge delivered to the address being
// claimed. The pending address travels in challenge metadata, never in the
// verify request.
func (s *Usecase) EmailChange(ctx context.Context, in EmailChangeInput) (*EmailChangeOutput, error) {
	ctx, span := s.startSpan(ctx, "EmailChange")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	newEmail := strings.ToLower(strings.TrimSpace(in.NewEmail))
	if newEmail == strings.ToLower(clm.UserEmail) {
		return nil, goerror.NewBusiness("new email is the same as the current one", goerror.CodeInvalidInput)
	}

	taken, err := s.repoDB.ExistsUserByEmail(ctx, newEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check email existence", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if taken {
		slog.WarnContext(ctx, "email change target already registered", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("email is already registered", goerror.CodeConflict)
	}

	if _, err := s.repoDB.InvalidateActiveChallenges(ctx, clm.UserID, entity.ChallengePurposeEmailChange); err != nil {
		slog.ErrorContext(ctx, "failed to repo invalidate challenges", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, expiresAt, err := s.mintChallenge(ctx, clm.UserID, newEmail, entity.ChallengePurposeEmailChange,
		map[string]any{"new_email": newEmail})
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.GetMinute("modules.account.otp_ttl_minutes")
	if err := s.repoEmail.SendChallengeCode(ctx, newEmail, entity.ChallengePurposeEmailChange, code, ttl); err != nil {
		return nil, s.deliveryError(ctx, clm.UserID, err)
	}

	return &EmailChangeOutput{ExpiresIn: int64(expiresAt.Sub(s.clock.Now()).Seconds())}, nil
}
