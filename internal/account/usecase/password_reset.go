package usecase

import (
	"context"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type PasswordResetInput struct {
	RecoveryToken string `validate:"required"`
	NewPassword   string `validate:"required,password"`
}

// PasswordReset sets a new password for the identity carried inside a valid
// recovery token and revokes every existing session. Token verification
// failures are reported with a single opaque message.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.recoveryToken.Verify(in.RecoveryToken)
	if err != nil {
		slog.WarnContext(ctx, "recovery token rejected")
		return goerror.NewBusiness("invalid or expired token", goerror.CodeUnauthorized)
	}

	if clm.Purpose != entity.ChallengePurposePasswordReset.String() {
		slog.WarnContext(ctx, "recovery token purpose mismatch", "user_id", clm.UserID, "purpose", clm.Purpose)
		return goerror.NewBusiness("token purpose mismatch", goerror.CodeForbidden)
	}

	newHash, err := s.bcrypt.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserCredential(ctx, clm.UserID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update credential", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if _, err := s.repoDB.RevokeAllRefreshTokens(ctx, clm.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all refresh tokens", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	s.publishPasswordChanged(ctx, clm.UserID, clm.UserEmail)

	return nil
}

func (s *Usecase) publishPasswordChanged(ctx context.Context, userID int64, email string) {
	msg := PasswordChangedEvent{
		UserID:    userID,
		Email:     email,
		ChangedAt: s.clock.Now(),
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPasswordChanged(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish password changed event", "user_id", msg.UserID, "error", err)
		}
		return nil
	})
}
