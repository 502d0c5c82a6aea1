package usecase

import (
	"context"
	"testing"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestLogin(t *testing.T) {
	t.Run("IssuesSessionPair", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})

		// Assert
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if out.TwoFactorRequired {
			t.Fatalf("unexpected two factor prompt")
		}
		if out.AccessToken == "" || len(out.RefreshToken) != 64 {
			t.Fatalf("expected a session token pair, got %+v", out)
		}
	})

	t.Run("WrongPasswordRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "not-the-password",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("UnknownEmailRejectedTheSameWay", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ghost@example.com", Password: "secret-password",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("AuthenticatorAccountGetsTwoFactorPrompt", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUserWithTOTP(t, "ana@example.com", "secret-password")

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})

		// Assert
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !out.TwoFactorRequired {
			t.Fatalf("expected two factor to be required")
		}
		if out.AccessToken != "" || out.RefreshToken != "" {
			t.Fatalf("no tokens may be issued before the second factor")
		}
		if out.ExpiresIn != 600 {
			t.Fatalf("expected challenge ttl in response, got %d", out.ExpiresIn)
		}
	})
}
