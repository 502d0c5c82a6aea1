package email

import (
	"context"
	"fmt"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/instrument"
	"github.com/inkflow/inkflow/internal/pkg/mail"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrUnavailable means no mail provider is configured at all.
	ErrUnavailable = fmt.Errorf("email: delivery is not configured: %w", goerror.ErrUnavailable)

	// ErrDeliveryFailed means the provider was reachable but the send did not succeed.
	ErrDeliveryFailed = fmt.Errorf("email: delivery failed: %w", goerror.ErrDeliveryFailed)
)

type Mail struct {
	client     mail.Mail
	ins        instrument.Instrumentation
	maxRetries uint64
	backoff    time.Duration
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{
		client:     client,
		ins:        ins,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
}

// SendChallengeCode delivers a one-time passcode. Transient failures are
// retried with exponential backoff before being reported as ErrDeliveryFailed.
func (m *Mail) SendChallengeCode(ctx context.Context, to string, purpose entity.ChallengePurpose, code string, ttl time.Duration) error {
	ctx, span := m.ins.Tracer("account.outbound.email").Start(ctx, "SendChallengeCode")
	defer span.End()

	if m.client == nil {
		span.RecordError(ErrUnavailable)
		span.SetStatus(codes.Error, ErrUnavailable.Error())
		return ErrUnavailable
	}

	msg := mail.Message{
		To:       []string{to},
		Subject:  subjectFor(purpose),
		TextBody: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	}

	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sErr := m.client.Send(ctx, msg); sErr != nil {
			return retry.RetryableError(sErr)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	return nil
}

func subjectFor(purpose entity.ChallengePurpose) string {
	switch purpose {
	case entity.ChallengePurposeEmailVerification:
		return "Verify your email address"
	case entity.ChallengePurposeLogin, entity.ChallengePurposeTwoFactor:
		return "Your sign-in code"
	case entity.ChallengePurposePasswordReset:
		return "Reset your password"
	case entity.ChallengePurposeEmailChange:
		return "Confirm your new email address"
	default:
		return "Your verification code"
	}
}
