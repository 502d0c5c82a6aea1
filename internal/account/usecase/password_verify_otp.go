package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type PasswordVerifyOTPInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,passcode"`
}

type PasswordVerifyOTPOutput struct {
	RecoveryToken string
	ExpiresIn     int64
}

// PasswordVerifyOTP exchanges a valid password_reset code for a short-lived
// recovery token. The challenge is consumed here; the token is the only thing
// the reset endpoint will accept.
func (s *Usecase) PasswordVerifyOTP(ctx context.Context, in PasswordVerifyOTPInput) (*PasswordVerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordVerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repoDB.GetUserLoginByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password verify otp for unknown email", "email", email)
		return nil, goerror.NewBusiness("invalid or expired code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	proof, err := s.verifyChallengeCode(ctx, user.ID, user.Email, entity.ChallengePurposePasswordReset, in.Code)
	if err != nil {
		return nil, err
	}

	recoveryToken, err := s.recoveryToken.Generate(proof.userID, proof.email, entity.ChallengePurposePasswordReset.String())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery token", "user_id", proof.userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &PasswordVerifyOTPOutput{
		RecoveryToken: recoveryToken,
		ExpiresIn:     int64(s.cfg.GetMinute("modules.account.recovery_token_ttl_minutes").Seconds()),
	}, nil
}
