package usecase

import (
	"context"
	"testing"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestRegister(t *testing.T) {
	t.Run("CreatesUnverifiedAccountWithChallenge", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.Register(context.Background(), RegisterInput{
			Email: "new@example.com", FullName: "New User", Password: "secret-password",
		})

		// Assert
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if out.UserID == 0 || out.ExpiresIn != 600 {
			t.Fatalf("unexpected output %+v", out)
		}
		if f.db.users[out.UserID].Status != entity.UserStatusUnverified {
			t.Fatalf("new account must start unverified")
		}
		if code := f.storedCode(t, out.UserID, entity.ChallengePurposeEmailVerification); len(code) != 6 {
			t.Fatalf("expected a 6 digit verification code, got %q", code)
		}
	})

	t.Run("DuplicateEmailRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedUser(t, "ana@example.com", "secret-password")

		// Act
		_, err := f.uc.Register(context.Background(), RegisterInput{
			Email: "ana@example.com", FullName: "Second Ana", Password: "secret-password",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("UnverifiedAccountCannotLogIn", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		if _, err := f.uc.Register(context.Background(), RegisterInput{
			Email: "new@example.com", FullName: "New User", Password: "secret-password",
		}); err != nil {
			t.Fatalf("register failed: %v", err)
		}

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{
			Email: "new@example.com", Password: "secret-password",
		})

		// Assert
		if codeOf(t, err) != goerror.CodeForbidden {
			t.Fatalf("expected forbidden before verification, got %v", err)
		}
	})
}
