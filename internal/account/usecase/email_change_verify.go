package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/token"
)

type EmailChangeVerifyInput struct {
	Code string `validate:"required,passcode"`
}

type EmailChangeVerifyOutput struct {
	Email string
}

// EmailChangeVerify consumes the email_change challenge and applies the
// address stored in its metadata.
func (s *Usecase) EmailChangeVerify(ctx context.Context, in EmailChangeVerifyInput) (*EmailChangeVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "EmailChangeVerify")
	defer span.End()

	clm := token.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	proof, err := s.verifyChallengeCode(ctx, clm.UserID, clm.UserEmail, entity.ChallengePurposeEmailChange, in.Code)
	if err != nil {
		return nil, err
	}

	if err := s.applyEmailChange(ctx, proof); err != nil {
		return nil, err
	}

	newEmail, _ := proof.metadata["new_email"].(string)

	return &EmailChangeVerifyOutput{Email: newEmail}, nil
}

func (s *Usecase) applyEmailChange(ctx context.Context, proof *verificationProof) error {
	newEmail, ok := proof.metadata["new_email"].(string)
	if !ok || newEmail == "" {
		slog.ErrorContext(ctx, "email change challenge has no pending address", "challenge_id", proof.challengeID)
		return goerror.NewServer(errors.New("challenge metadata missing new_email"))
	}

	err := s.repoDB.UpdateUserEmail(ctx, proof.userID, newEmail)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email taken between request and verify", "user_id", proof.userID)
		return goerror.NewBusiness("email is already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update email", "user_id", proof.userID, "error", err)
		return goerror.NewServer(err)
	}

	msg := EmailChangedEvent{
		UserID:    proof.userID,
		OldEmail:  proof.email,
		NewEmail:  newEmail,
		ChangedAt: s.clock.Now(),
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if pErr := s.repoMessaging.PublishEmailChanged(ctx, msg); pErr != nil {
			slog.WarnContext(ctx, "failed to publish email changed event", "user_id", msg.UserID, "error", pErr)
		}
		return nil
	})

	return nil
}
