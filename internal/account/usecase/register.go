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

type RegisterInput struct {
	Email    string `validate:"required,email"`
	FullName string `validate:"required,alphaspace,max=100"`
	Password string `validate:"required,password"`
}

type RegisterOutput struct {
	UserID    int64
	ExpiresIn int64
}

// Register creates an unverified account together with its first
// email_verification challenge in one transaction, then delivers the code
// after the commit.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	passwordHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	userID := s.uid.Generate()

	code, err := s.passcode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	encrypted, err := s.encryptor.Encrypt([]byte(code), crypt.Scope{UserID: userID, Purpose: crypt.PurposeChallengeCode})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.account.otp_ttl_minutes")
	expiresAt := s.clock.Now().Add(ttl)

	err = s.repoDB.NewRegistration(ctx,
		entity.NewUser{
			ID:       userID,
			Email:    email,
			FullName: strings.TrimSpace(in.FullName),
			Password: string(passwordHash),
			Status:   entity.UserStatusUnverified,
		},
		entity.NewChallenge{
			ID:        s.uid.Generate(),
			UserID:    userID,
			Contact:   email,
			Purpose:   entity.ChallengePurposeEmailVerification,
			Code:      encrypted,
			ExpiresAt: expiresAt,
		})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email already registered", "email", email)
		return nil, goerror.NewBusiness("email is already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create registration", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Delivery is best-effort here; a lost email is recovered through resend.
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if sErr := s.repoEmail.SendChallengeCode(ctx, email, entity.ChallengePurposeEmailVerification, code, ttl); sErr != nil {
			slog.WarnContext(ctx, "failed to deliver verification code", "user_id", userID, "error", sErr)
		}
		return nil
	})

	return &RegisterOutput{
		UserID:    userID,
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}
