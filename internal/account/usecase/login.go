package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	TwoFactorRequired bool
	ExpiresIn         int64
	//
	AccessToken  string
	RefreshToken string
}

// Login checks the password and either issues a session pair or, for accounts
// with a confirmed authenticator factor, opens a two_factor challenge to be
// finished through the verify endpoint.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.repoDB.GetUserLoginByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	if user.HasTOTP {
		code, expiresAt, err := s.reuseOrMintChallenge(ctx, user.ID, email, entity.ChallengePurposeTwoFactor)
		if err != nil {
			return nil, err
		}

		// The emailed code is a fallback; authenticator codes are accepted
		// without it, so delivery failures only get logged.
		ttl := s.cfg.GetMinute("modules.account.otp_ttl_minutes")
		s.goroutine.Go(ctx, func(ctx context.Context) error {
			if sErr := s.repoEmail.SendChallengeCode(ctx, email, entity.ChallengePurposeTwoFactor, code, ttl); sErr != nil {
				slog.WarnContext(ctx, "failed to deliver two factor code", "user_id", user.ID, "error", sErr)
			}
			return nil
		})

		return &LoginOutput{
			TwoFactorRequired: true,
			ExpiresIn:         int64(expiresAt.Sub(s.clock.Now()).Seconds()),
		}, nil
	}

	accessToken, refreshToken, err := s.issueSessionTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
