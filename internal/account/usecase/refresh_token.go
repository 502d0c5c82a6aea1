package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// RefreshToken rotates the presented refresh token. Presenting an already
// rotated token is treated as theft evidence and revokes every session.
func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if len(in.RefreshToken) != 64 {
		return nil, goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	urt, err := s.repoDB.GetUserRefreshToken(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token not found")
		return nil, goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if urt.RefreshRevoked {
		if urt.RefreshReplacedByTokenID != nil {
			return nil, s.handleTokenReuse(ctx, urt.UserID)
		}
		slog.WarnContext(ctx, "refresh token is revoked", "user_id", urt.UserID)
		return nil, goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}

	if !s.clock.Now().Before(urt.RefreshExpiresAt) {
		slog.WarnContext(ctx, "refresh token has expired", "user_id", urt.UserID)
		return nil, goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, urt.UserID, urt.UserStatus); err != nil {
		return nil, err
	}

	newToken := s.oid.Generate()
	newTokenHash, err := s.hmac.Hash(newToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", urt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.RotateRefreshToken(ctx, entity.RotateRefreshToken{
		NewID:        s.uid.Generate(),
		OldID:        urt.RefreshID,
		UserID:       urt.UserID,
		NewTokenHash: string(newTokenHash),
		NewExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.account.refresh_token_ttl_days")),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		// Someone else rotated it between our read and write.
		return nil, s.handleTokenReuse(ctx, urt.UserID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate refresh token", "user_id", urt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	accessToken, err := s.accessToken.Generate(urt.UserID, urt.UserEmail, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", urt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshTokenOutput{
		AccessToken:  accessToken,
		RefreshToken: newToken,
	}, nil
}

func (s *Usecase) handleTokenReuse(ctx context.Context, userID int64) error {
	slog.WarnContext(ctx, "refresh token reuse detected", "user_id", userID)

	if _, err := s.repoDB.RevokeAllRefreshTokens(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all refresh tokens", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	return goerror.NewBusiness("token reuse detected", goerror.CodeForbidden)
}
