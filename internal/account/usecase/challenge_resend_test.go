package usecase

import (
	"context"
	"testing"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestResendChallenge(t *testing.T) {
	t.Run("MintsFreshCodeAndInvalidatesOld", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		oldCode := f.lastEmailedCode(t)

		// Act
		out, err := f.uc.ResendChallenge(context.Background(), ResendChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("resend failed: %v", err)
		}
		if out.ExpiresIn != 600 {
			t.Fatalf("expected fresh 600s ttl, got %d", out.ExpiresIn)
		}
		newCode := f.lastEmailedCode(t)
		if newCode == oldCode {
			t.Fatalf("resend must mint a new code, got %q twice", oldCode)
		}

		if _, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: oldCode,
		}); codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("superseded code must be rejected, got %v", err)
		}
		if _, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: newCode,
		}); err != nil {
			t.Fatalf("fresh code must verify: %v", err)
		}
	})

	t.Run("DuplicateResendIsSuppressed", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.ResendChallenge(context.Background(), ResendChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("first resend failed: %v", err)
		}

		// Act
		_, err := f.uc.ResendChallenge(context.Background(), ResendChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeTooManyRequest {
			t.Fatalf("expected too many requests, got %v", err)
		}
		if f.email.count() != 1 {
			t.Fatalf("duplicate resend must not deliver again, got %d", f.email.count())
		}
	})

	t.Run("UnknownEmailLooksLikeSuccess", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.ResendChallenge(context.Background(), ResendChallengeInput{
			Email: "ghost@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("unknown email must not error: %v", err)
		}
		if out.ExpiresIn != 600 {
			t.Fatalf("expected default ttl in response, got %d", out.ExpiresIn)
		}
		if f.email.count() != 0 {
			t.Fatalf("expected no delivery for unknown email, got %d", f.email.count())
		}
	})
}
