package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type LogoutInput struct {
	RefreshToken string `validate:"required"`
}

// Logout revokes the caller's refresh token. Revoking one that is already
// gone is reported as success.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if len(in.RefreshToken) != 64 {
		return goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.RevokeRefreshToken(ctx, clm.UserID, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token already revoked or unknown", "user_id", clm.UserID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
