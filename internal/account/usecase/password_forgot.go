package usecase

import (
	"context"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`
}

type PasswordForgotOutput struct {
	ExpiresIn int64
}

// PasswordForgot opens a password_reset challenge. Unknown addresses get the
// same response as known ones.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) (*PasswordForgotOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out, err := s.RequestChallenge(ctx, RequestChallengeInput{
		Email:   in.Email,
		Purpose: entity.ChallengePurposePasswordReset.String(),
	})
	if err != nil {
		return nil, err
	}

	return &PasswordForgotOutput{ExpiresIn: out.ExpiresIn}, nil
}
