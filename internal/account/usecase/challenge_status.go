package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type ChallengeStatusInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required"`
}

type ChallengeStatusOutput struct {
	HasActive         bool
	ExpiresAt         time.Time
	RemainingAttempts int32
}

// ChallengeStatus is a read-only projection for UI polling. It never touches
// the attempt counter and reports nothing for unknown addresses.
func (s *Usecase) ChallengeStatus(ctx context.Context, in ChallengeStatusInput) (*ChallengeStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "ChallengeStatus")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ChallengePurposeFromString(in.Purpose)
	if !isPublicChallengePurpose(purpose) {
		return nil, goerror.NewBusiness("unsupported challenge purpose", goerror.CodeInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repoDB.GetUserLoginByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &ChallengeStatusOutput{HasActive: false}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	chal, err := s.repoDB.GetActiveChallenge(ctx, user.ID, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return &ChallengeStatusOutput{HasActive: false}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active challenge", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	remaining := int32(s.cfg.GetInt("modules.account.otp_max_attempts")) - chal.Attempts
	if remaining < 0 {
		remaining = 0
	}

	return &ChallengeStatusOutput{
		HasActive:         true,
		ExpiresAt:         chal.ExpiresAt,
		RemainingAttempts: remaining,
	}, nil
}
