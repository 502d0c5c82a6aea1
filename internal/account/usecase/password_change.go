package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type PasswordChangeInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,password"`
}

// PasswordChange re-hashes the password after checking the current one, then
// revokes other sessions.
func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetUserCredential(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user credential not found", "user_id", clm.UserID)
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, cred.ID, cred.Status); err != nil {
		return err
	}

	if !s.bcrypt.Verify(cred.Password, in.CurrentPassword) {
		slog.WarnContext(ctx, "current password mismatch", "user_id", clm.UserID)
		return goerror.NewBusiness("current password is incorrect", goerror.CodeUnauthorized)
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

	s.publishPasswordChanged(ctx, cred.ID, cred.Email)

	return nil
}
