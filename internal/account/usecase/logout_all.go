package usecase

import (
	"context"
	"log/slog"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type LogoutAllOutput struct {
	RevokedSessions int64
}

// LogoutAll revokes every active refresh token owned by the caller.
func (s *Usecase) LogoutAll(ctx context.Context) (*LogoutAllOutput, error) {
	ctx, span := s.startSpan(ctx, "LogoutAll")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	revoked, err := s.repoDB.RevokeAllRefreshTokens(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all refresh tokens", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LogoutAllOutput{RevokedSessions: revoked}, nil
}
