package usecase

import (
	"context"
	"testing"
	"time"
)

func TestChallengeStatus(t *testing.T) {
	t.Run("ReportsRemainingAttempts", func(t *testing.T) {
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
		before, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
			Email: "ana@example.com", Purpose: "login",
		})
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}

		if _, vErr := f.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{
			Email: "ana@example.com", Purpose: "login", Code: wrongCode(code),
		}); vErr == nil {
			t.Fatalf("wrong code must not verify")
		}

		after, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
			Email: "ana@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !before.HasActive || before.RemainingAttempts != 3 {
			t.Fatalf("expected a fresh challenge with 3 attempts, got %+v", before)
		}
		if after.RemainingAttempts != 2 {
			t.Fatalf("expected 2 remaining after one miss, got %d", after.RemainingAttempts)
		}
		if !after.ExpiresAt.Equal(f.clock.Now().Add(10 * time.Minute)) {
			t.Fatalf("unexpected expiry %v", after.ExpiresAt)
		}
	})

	t.Run("PollingNeverConsumesAttempts", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}

		// Act
		for i := 0; i < 5; i++ {
			if _, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
				Email: "ana@example.com", Purpose: "login",
			}); err != nil {
				t.Fatalf("status failed: %v", err)
			}
		}
		out, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
			Email: "ana@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if out.RemainingAttempts != 3 {
			t.Fatalf("polling must not touch the counter, got %d", out.RemainingAttempts)
		}
	})

	t.Run("NothingForUnknownEmail", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
			Email: "ghost@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if out.HasActive {
			t.Fatalf("unknown email must report no challenge")
		}
	})

	t.Run("ExpiredChallengeNotReported", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")
		if _, err := f.uc.RequestChallenge(context.Background(), RequestChallengeInput{
			Email: "ana@example.com", Purpose: "login",
		}); err != nil {
			t.Fatalf("request failed: %v", err)
		}

		f.clock.Advance(11 * time.Minute)

		// Act
		out, err := f.uc.ChallengeStatus(context.Background(), ChallengeStatusInput{
			Email: "ana@example.com", Purpose: "login",
		})

		// Assert
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if out.HasActive {
			t.Fatalf("expired challenge must not be reported")
		}
	})
}
