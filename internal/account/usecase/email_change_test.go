package usecase

import (
	"context"
	"testing"

	"github.com/inkflow/inkflow/internal/pkg/goerror"
)

func TestEmailChange(t *testing.T) {
	t.Run("CodeGoesToTheClaimedAddress", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		out, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "ana.new@example.com"})

		// Assert
		if err != nil {
			t.Fatalf("email change failed: %v", err)
		}
		if out.ExpiresIn != 600 {
			t.Fatalf("expected 600s ttl, got %d", out.ExpiresIn)
		}
		sent, ok := f.email.lastSent()
		if !ok {
			t.Fatalf("expected a delivered email")
		}
		if sent.to != "ana.new@example.com" {
			t.Fatalf("code must go to the new address, went to %q", sent.to)
		}
	})

	t.Run("VerifyAppliesThePendingAddress", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")
		if _, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "ana.new@example.com"}); err != nil {
			t.Fatalf("email change failed: %v", err)
		}
		code := f.lastEmailedCode(t)

		// Act
		out, err := f.uc.EmailChangeVerify(ctx, EmailChangeVerifyInput{Code: code})

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if out.Email != "ana.new@example.com" {
			t.Fatalf("unexpected applied address %q", out.Email)
		}
		if f.db.users[userID].Email != "ana.new@example.com" {
			t.Fatalf("account still carries %q", f.db.users[userID].Email)
		}
		if _, err := f.uc.Login(context.Background(), LoginInput{
			Email: "ana.new@example.com", Password: "secret-password",
		}); err != nil {
			t.Fatalf("login with the new address must work: %v", err)
		}
	})

	t.Run("TakenAddressRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		f.seedUser(t, "bob@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		_, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "bob@example.com"})

		// Assert
		if codeOf(t, err) != goerror.CodeConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("SameAddressRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")

		// Act
		_, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "Ana@Example.com"})

		// Assert
		if codeOf(t, err) != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("NewRequestSupersedesThePreviousOne", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		userID := f.seedUser(t, "ana@example.com", "secret-password")
		ctx := f.authCtx(userID, "ana@example.com")
		if _, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "first@example.com"}); err != nil {
			t.Fatalf("first request failed: %v", err)
		}
		firstCode := f.lastEmailedCode(t)
		if _, err := f.uc.EmailChange(ctx, EmailChangeInput{NewEmail: "second@example.com"}); err != nil {
			t.Fatalf("second request failed: %v", err)
		}
		secondCode := f.lastEmailedCode(t)

		// Act
		out, err := f.uc.EmailChangeVerify(ctx, EmailChangeVerifyInput{Code: secondCode})

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if out.Email != "second@example.com" {
			t.Fatalf("expected the later request to win, got %q", out.Email)
		}
		if _, err := f.uc.EmailChangeVerify(ctx, EmailChangeVerifyInput{Code: firstCode}); err == nil {
			t.Fatalf("superseded code must not verify")
		}
	})
}
