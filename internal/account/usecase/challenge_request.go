package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/crypt"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type RequestChallengeInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required"`
}

type RequestChallengeOutput struct {
	ExpiresIn int64 // seconds until the active challenge expires
}

// RequestChallenge reuses the caller's active challenge when one exists,
// otherwise mints a new one, then delivers the code by email. The code itself
// never appears in the response.
func (s *Usecase) RequestChallenge(ctx context.Context, in RequestChallengeInput) (*RequestChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestChallenge")
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
		// Indistinguishable from the success path so the endpoint cannot be
		// used to probe which addresses have accounts.
		slog.WarnContext(ctx, "challenge requested for unknown email", "email", email)
		return &RequestChallengeOutput{ExpiresIn: int64(ttl.Seconds())}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureChallengeAllowed(ctx, user, purpose); err != nil {
		return nil, err
	}

	code, expiresAt, err := s.reuseOrMintChallenge(ctx, user.ID, email, purpose)
	if err != nil {
		return nil, err
	}

	if err := s.repoEmail.SendChallengeCode(ctx, email, purpose, code, ttl); err != nil {
		// The challenge is already committed; a failed delivery leaves it
		// usable through resend.
		return nil, s.deliveryError(ctx, user.ID, err)
	}

	return &RequestChallengeOutput{ExpiresIn: int64(expiresAt.Sub(s.clock.Now()).Seconds())}, nil
}

// reuseOrMintChallenge implements the reuse-within-TTL policy: an active
// challenge keeps its code and attempt count, a missing one is minted fresh.
// Two racing requests may each mint a row; reads resolve deterministically to
// the newest, so the race stays benign.
func (s *Usecase) reuseOrMintChallenge(ctx context.Context, userID int64, contact string, purpose entity.ChallengePurpose) (string, time.Time, error) {
	chal, err := s.repoDB.GetActiveChallenge(ctx, userID, purpose)
	if err == nil {
		plain, dErr := s.encryptor.Decrypt(chal.Code, crypt.Scope{UserID: userID, Purpose: crypt.PurposeChallengeCode})
		if dErr != nil {
			slog.ErrorContext(ctx, "failed to decrypt challenge code", "challenge_id", chal.ID, "error", dErr)
			return "", time.Time{}, goerror.NewServer(dErr)
		}
		return string(plain), chal.ExpiresAt, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get active challenge", "user_id", userID, "error", err)
		return "", time.Time{}, goerror.NewServer(err)
	}

	return s.mintChallenge(ctx, userID, contact, purpose, nil)
}

func (s *Usecase) ensureChallengeAllowed(ctx context.Context, user *entity.UserLoginInfo, purpose entity.ChallengePurpose) error {
	if purpose == entity.ChallengePurposeEmailVerification {
		if user.Status.Ensure() == entity.UserStatusUnverified {
			return nil
		}
		return goerror.NewBusiness("email is already verified", goerror.CodeConflict)
	}

	return s.ensureUserStatusAllowed(ctx, user.ID, user.Status)
}

func isPublicChallengePurpose(p entity.ChallengePurpose) bool {
	switch p {
	case entity.ChallengePurposeEmailVerification, entity.ChallengePurposeLogin,
		entity.ChallengePurposeTwoFactor, entity.ChallengePurposePasswordReset:
		return true
	default:
		return false
	}
}
