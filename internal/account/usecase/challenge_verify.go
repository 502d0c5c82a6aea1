package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/crypt"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type VerifyChallengeInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required"`
	Code    string `validate:"required,passcode"`
}

type VerifyChallengeOutput struct {
	AccessToken  string
	RefreshToken string
}

// VerifyChallenge checks a submitted code against the active challenge and,
// on success, applies the purpose-specific account mutation and issues a
// session token pair.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyChallengeInput) (*VerifyChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ChallengePurposeFromString(in.Purpose)
	switch purpose {
	case entity.ChallengePurposeEmailVerification, entity.ChallengePurposeLogin, entity.ChallengePurposeTwoFactor:
	default:
		return nil, goerror.NewBusiness("unsupported challenge purpose", goerror.CodeInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repoDB.GetUserLoginByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge verify for unknown email", "email", email)
		return nil, goerror.NewBusiness("invalid or expired code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if purpose != entity.ChallengePurposeEmailVerification {
		if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
			return nil, err
		}
	}

	proof, err := s.proveChallenge(ctx, user, purpose, in.Code)
	if err != nil {
		return nil, err
	}

	if proof.purpose == entity.ChallengePurposeEmailVerification {
		if err := s.applyEmailVerified(ctx, proof); err != nil {
			return nil, err
		}
	}

	accessToken, refreshToken, err := s.issueSessionTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &VerifyChallengeOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// proveChallenge resolves a submitted code into a verification proof. For the
// two_factor purpose an authenticator-app code is accepted in place of the
// emailed one and does not charge an attempt.
func (s *Usecase) proveChallenge(ctx context.Context, user *entity.UserLoginInfo, purpose entity.ChallengePurpose, code string) (*verificationProof, error) {
	if purpose == entity.ChallengePurposeTwoFactor && user.HasTOTP {
		if proof, ok := s.proveWithTOTP(ctx, user, code); ok {
			return proof, nil
		}
	}

	return s.verifyChallengeCode(ctx, user.ID, user.Email, purpose, code)
}

func (s *Usecase) proveWithTOTP(ctx context.Context, user *entity.UserLoginInfo, code string) (*verificationProof, bool) {
	factor, err := s.repoDB.GetConfirmedTOTPFactor(ctx, user.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", user.ID, "error", err)
		return nil, false
	}

	secret, err := s.encryptor.Decrypt(factor.Secret, crypt.Scope{UserID: user.ID, Purpose: crypt.PurposeTOTPSecret})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", user.ID, "error", err)
		return nil, false
	}

	if !s.totp.Validate(code, string(secret), s.clock.Now()) {
		return nil, false
	}

	// Consume the pending emailed challenge so it cannot be replayed.
	chal, err := s.repoDB.GetActiveChallenge(ctx, user.ID, entity.ChallengePurposeTwoFactor)
	if err == nil {
		if mErr := s.repoDB.MarkChallengeUsed(ctx, chal.ID); mErr != nil {
			slog.ErrorContext(ctx, "failed to repo mark challenge used", "challenge_id", chal.ID, "error", mErr)
		}
	}

	s.publishChallengeVerified(ctx, user.ID, user.Email, entity.ChallengePurposeTwoFactor)

	return &verificationProof{
		userID:  user.ID,
		email:   user.Email,
		purpose: entity.ChallengePurposeTwoFactor,
	}, true
}

// applyEmailVerified promotes an unverified account after its address has
// been proven. A lost race with another verifier is fine, the end state is
// identical.
func (s *Usecase) applyEmailVerified(ctx context.Context, proof *verificationProof) error {
	err := s.repoDB.MarkEmailVerified(ctx, proof.userID, entity.UserStatusUnverified, entity.UserStatusActive)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user already verified", "user_id", proof.userID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark email verified", "user_id", proof.userID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
