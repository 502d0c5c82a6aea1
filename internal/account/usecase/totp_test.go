package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestTOTPSetupAndConfirm(t *testing.T) {
	t.Run("SetupThenConfirmEnablesTwoFactor", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		setup, err := f.uc.TOTPSetup(ctx)
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if setup.Secret == "" || setup.URI == "" {
			t.Fatalf("expected provisioning material, got %+v", setup)
		}

		code, err := f.totp.GenerateCode(setup.Secret, f.clock.Now())
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}

		// Act
		err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code})

		// Assert
		if err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		login, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !login.TwoFactorRequired {
			t.Fatalf("confirmed factor must gate login behind a second factor")
		}
	})

	t.Run("ConfirmWithWrongCodeRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		setup, err := f.uc.TOTPSetup(ctx)
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		code, err := f.totp.GenerateCode(setup.Secret, f.clock.Now())
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}

		// Act
		err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: wrongCode(code)})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("SetupRejectedWhenAlreadyConfigured", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID, _ := f.seedUserWithTOTP(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		_, err := f.uc.TOTPSetup(ctx)

		// Assert
		if codeOf(t, err) != goerror.CodeConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("ConfirmWithoutSetupRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: "123456"})

		// Assert
		if codeOf(t, err) != goerror.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("ExpiredSetupMustBeRestarted", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		setup, err := f.uc.TOTPSetup(ctx)
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		f.clock.Advance(11 * time.Minute)
		code, err := f.totp.GenerateCode(setup.Secret, f.clock.Now())
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}

		// Act
		err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code})

		// Assert
		if codeOf(t, err) != goerror.CodeExpired {
			t.Fatalf("expected expired, got %v", err)
		}
	})

	t.Run("RequiresAuthentication", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.TOTPSetup(context.Background())

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}
