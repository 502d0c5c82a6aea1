package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/idempotency"
)

type ResendChallengeInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required"`
}

type ResendChallengeOutput struct {
	ExpiresIn int64
}

// ResendChallenge invalidates whatever is active and always mints a fresh
// code. A redis-backed guard absorbs double submits from impatient clients.
func (s *Usecase) ResendChallenge(ctx context.Context, in ResendChallengeInput) (*ResendChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendChallenge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ChallengePurposeFromString(in.Purpose)
	if !isPublicChallengePurpose(purpose) {
		return nil, goerror.NewBusiness("unsupported challenge purpose", goerror.CodeInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	ttl := s.cfg.GetMinute("modules.account.otp_ttl_minutes")

	user, err := s.repoDB.GetUserLoginByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge resend for unknown email", "email", email)
		return &ResendChallengeOutput{ExpiresIn: int64(ttl.Seconds())}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureChallengeAllowed(ctx, user, purpose); err != nil {
		return nil, err
	}

	var expiresAt time.Time
	idemKey := "otp:resend:" + email + ":" + purpose.String()
	err = s.idemp.Exec(ctx, idemKey, func(ctx context.Context) error {
		if _, err := s.repoDB.InvalidateActiveChallenges(ctx, user.ID, purpose); err != nil {
			slog.ErrorContext(ctx, "failed to repo invalidate challenges", "user_id", user.ID, "error", err)
			return goerror.NewServer(err)
		}

		code, exp, err := s.mintChallenge(ctx, user.ID, email, purpose, nil)
		if err != nil {
			return err
		}
		expiresAt = exp

		if err := s.repoEmail.SendChallengeCode(ctx, email, purpose, code, ttl); err != nil {
			return s.deliveryError(ctx, user.ID, err)
		}

		return nil
	}, idempotency.WithLockDuration(10*time.Second), idempotency.WithStateTTL(30*time.Second))

	if errors.Is(err, idempotency.ErrAlreadyInProgress) || errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.WarnContext(ctx, "duplicate challenge resend suppressed", "user_id", user.ID)
		return nil, goerror.NewBusiness("a code was just sent, wait before retrying", goerror.CodeTooManyRequest)
	}
	if err != nil {
		return nil, err
	}

	return &ResendChallengeOutput{ExpiresIn: int64(expiresAt.Sub(s.clock.Now()).Seconds())}, nil
}
