package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestRefreshToken(t *testing.T) {
	login := func(t *testing.T, f *fixture) *LoginOutput {
		t.Helper()
		out, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		return out
	}

	t.Run("RotatesTokenPair", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		session := login(t, f)

		// Act
		out, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})

		// Assert
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if out.AccessToken == "" || len(out.RefreshToken) != 64 {
			t.Fatalf("expected a fresh token pair, got %+v", out)
		}
		if out.RefreshToken == session.RefreshToken {
			t.Fatalf("rotation must issue a different refresh token")
		}
		if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: out.RefreshToken,
		}); err != nil {
			t.Fatalf("rotated token must be usable: %v", err)
		}
	})

	t.Run("ReuseOfRotatedTokenRevokesEverySession", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		session := login(t, f)
		rotated, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		// Act
		_, err = f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})

		// Assert
		if codeOf(t, err) != goerror.CodeForbidden {
			t.Fatalf("expected forbidden on reuse, got %v", err)
		}
		if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: rotated.RefreshToken,
		}); codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("reuse must revoke the live session too, got %v", err)
		}
	})

	t.Run("MalformedTokenRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: "too-short",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		session := login(t, f)

		f.clock.Advance(31 * 24 * time.Hour)

		// Act
		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized for expired token, got %v", err)
		}
	})
}
