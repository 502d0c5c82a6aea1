package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestLogout(t *testing.T) {
	t.Run("RevokesPresentedToken", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		session, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		err = f.uc.Logout(ctx, LogoutInput{RefreshToken: session.RefreshToken})

		// Assert
		if err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		}); codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("revoked token must not refresh, got %v", err)
		}
	})

	t.Run("UnknownTokenIsStillSuccess", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		err := f.uc.Logout(ctx, LogoutInput{RefreshToken: strings.Repeat("0", 64)})

		// Assert
		if err != nil {
			t.Fatalf("logout of an unknown token must be idempotent: %v", err)
		}
	})

	t.Run("RequiresAuthentication", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.Logout(context.Background(), LogoutInput{RefreshToken: strings.Repeat("0", 64)})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestLogoutAll(t *testing.T) {
	t.Run("RevokesEverySession", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		first, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("first login failed: %v", err)
		}
		second, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("second login failed: %v", err)
		}

		// Act
		out, err := f.uc.LogoutAll(f.authCtx(userID, "ana@example.com"))

		// Assert
		if err != nil {
			t.Fatalf("logout all failed: %v", err)
		}
		if out.RevokedSessions != 2 {
			t.Fatalf("expected 2 revoked sessions, got %d", out.RevokedSessions)
		}
		for _, rt := range []string{first.RefreshToken, second.RefreshToken} {
			if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
				RefreshToken: rt,
			}); codeOf(t, err) != goerror.CodeUnauthorized {
				t.Fatalf("revoked token must not refresh, got %v", err)
			}
		}
	})
}

func TestPasswordChange(t *testing.T) {
	t.Run("ReplacesPasswordAndRevokesSessions", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "old-password")
		session, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "old-password",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		// Act
		err = f.uc.PasswordChange(f.authCtx(userID, "ana@example.com"), PasswordChangeInput{
			CurrentPassword: "old-password",
			NewPassword:     "brand-new-password",
		})

		// Assert
		if err != nil {
			t.Fatalf("password change failed: %v", err)
		}
		if _, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "old-password",
		}); codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("old password must stop working, got %v", err)
		}
		if _, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "brand-new-password",
		}); err != nil {
			t.Fatalf("new password must work: %v", err)
		}
		if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		}); codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("old sessions must be revoked, got %v", err)
		}
	})

	t.Run("WrongCurrentPasswordRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "old-password")

		// Act
		err := f.uc.PasswordChange(f.authCtx(userID, "ana@example.com"), PasswordChangeInput{
			CurrentPassword: "not-the-password",
			NewPassword:     "brand-new-password",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}
