package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestVerifyChallenge(t *testing.T) {
	t.Run("CorrectCodeIssuesSession", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		code := f.lastEmailedCode(t)

		// Act
		out, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: code,
		})

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if out.AccessToken == "" || len(out.RefreshToken) != 64 {
			t.Fatalf("expected session token pair, got %+v", out)
		}
	})

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		code := f.lastEmailedCode(t)

		if _, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: code,
		}); err != nil {
			t.Fatalf("first verify failed: %v", err)
		}

		// Act
		_, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: code,
		})

		// Assert
		if codeOf(t, err) != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized on replay, got %v", err)
		}
	})

	t.Run("AttemptCapRejectsEvenCorrectCode", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		code := f.lastEmailedCode(t)

		for i := 0; i < 2; i++ {
			_, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
				Email: "ana@example.com", Purpose: "login", Code: wrongCode(code),
			})
			if codeOf(t, err) != goerror.CodeUnauthorized {
				t.Fatalf("attempt %d: expected unauthorized, got %v", i+1, err)
			}
		}

		// Act
		_, lastMissErr := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: wrongCode(code),
		})
		_, correctErr := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: code,
		})

		// Assert
		if codeOf(t, lastMissErr) != goerror.CodeTooManyRequest {
			t.Fatalf("a miss on the final allowed attempt must exhaust the budget, got %v", lastMissErr)
		}
		if codeOf(t, correctErr) != goerror.CodeTooManyRequest {
			t.Fatalf("expected too many requests after the cap, got %v", correctErr)
		}
	})

	t.Run("ExpiredCodeDoesNotChargeAttempt", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		code := f.lastEmailedCode(t)

		f.clock.Advance(11 * time.Minute)

		// Act
		_, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: code,
		})

		// Assert
		if codeOf(t, err) != goerror.CodeExpired {
			t.Fatalf("expected expired, got %v", err)
		}
		for _, c := range f.db.challenges {
			if c.UserID == userID && c.Attempts != 0 {
				t.Fatalf("expiry must not consume attempts, got %d", c.Attempts)
			}
		}
	})

	t.Run("EmailVerificationActivatesAccount", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		reg, err := f.uc.Register(context.Background(), RegisterInput{
			Email: "new@example.com", FullName: "New User", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		code := f.storedCode(t, reg.UserID, entity.ChallengePurposeEmailVerification)

		// Act
		out, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "new@example.com", Purpose: "email_verification", Code: code,
		})

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if out.AccessToken == "" {
			t.Fatalf("expected a session after verification")
		}
		if f.db.users[reg.UserID].Status != entity.UserStatusActive {
			t.Fatalf("expected active status, got %v", f.db.users[reg.UserID].Status)
		}
	})

	t.Run("AuthenticatorCodeSkipsAttemptBudget", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID, secret := f.seedUserWithTOTP(t, "ana@example.com", "secret-password")

		login, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana@example.com", Password: "secret-password",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !login.TwoFactorRequired {
			t.Fatalf("expected two factor to be required")
		}

		totpCode, err := f.totp.GenerateCode(secret, f.clock.Now())
		if err != nil {
			t.Fatalf("failed to generate totp code: %v", err)
		}

		// Act
		out, err := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "two_factor", Code: totpCode,
		})

		// Assert
		if err != nil {
			t.Fatalf("verify with authenticator code failed: %v", err)
		}
		if out.AccessToken == "" {
			t.Fatalf("expected a session")
		}
		for _, c := range f.db.challenges {
			if c.UserID == userID && c.Purpose == entity.ChallengePurposeTwoFactor {
				if c.Attempts != 0 {
					t.Fatalf("authenticator path must not charge attempts, got %d", c.Attempts)
				}
				if !c.Used {
					t.Fatalf("pending emailed challenge must be consumed")
				}
			}
		}
	})
}
