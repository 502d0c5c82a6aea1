package usecase

import (
	"context"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type LoginOTPInput struct {
	Email string `validate:"required,email"`
}

type LoginOTPOutput struct {
	ExpiresIn int64
}

// LoginOTP starts a passwordless sign-in by opening a login-purpose challenge.
// The session pair is issued by the verify endpoint once the code checks out.
func (s *Usecase) LoginOTP(ctx context.Context, in LoginOTPInput) (*LoginOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out, err := s.RequestChallenge(ctx, RequestChallengeInput{
		Email:   in.Email,
		Purpose: entity.ChallengePurposeLogin.String(),
	})
	if err != nil {
		return nil, err
	}

	return &LoginOTPOutput{ExpiresIn: out.ExpiresIn}, nil
}
