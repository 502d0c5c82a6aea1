package token

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/inkflow/inkflow/internal/pkg/clock"
)

type seqUUID struct{ n int }

func (s *seqUUID) Generate() string {
	s.n++
	return string(rune('a'+s.n%26)) + "-test-jti"
}

func testIssuer(t *testing.T, c clocker, ttl time.Duration) *Symmetric {
	t.Helper()

	iss, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "issuer-test",
		Audiences: []string{"aud-test"},
		TTL:       ttl,
		Clock:     c,
		UUID:      &seqUUID{},
	})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}
	return iss
}

func TestSymmetric(t *testing.T) {
	t.Run("RoundTripCarriesClaims", func(t *testing.T) {
		// Arrange
		c := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
		iss := testIssuer(t, c, 15*time.Minute)

		// Act
		tok, err := iss.Generate(42, "ana@example.com", "password_reset")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		clm, err := iss.Verify(tok)

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if clm.UserID != 42 || clm.UserEmail != "ana@example.com" || clm.Purpose != "password_reset" {
			t.Fatalf("unexpected claims %+v", clm)
		}
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		// Arrange
		c := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
		iss := testIssuer(t, c, 15*time.Minute)
		tok, err := iss.Generate(42, "ana@example.com", "")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		c.Advance(16 * time.Minute)

		// Act
		_, err = iss.Verify(tok)

		// Assert
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("ForeignSecretRejected", func(t *testing.T) {
		// Arrange
		c := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
		iss := testIssuer(t, c, 15*time.Minute)
		other, err := NewHS512(Config{
			Secret:    bytes.Repeat([]byte("x"), 64),
			Issuer:    "issuer-test",
			Audiences: []string{"aud-test"},
			TTL:       15 * time.Minute,
			Clock:     c,
			UUID:      &seqUUID{},
		})
		if err != nil {
			t.Fatalf("failed to construct issuer: %v", err)
		}
		tok, err := other.Generate(42, "ana@example.com", "")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		// Act
		_, err = iss.Verify(tok)

		// Assert
		if err == nil {
			t.Fatalf("token signed with a different secret must not verify")
		}
	})

	t.Run("ShortSecretRejected", func(t *testing.T) {
		// Arrange & Act
		_, err := NewHS512(Config{Secret: []byte("short")})

		// Assert
		if !errors.Is(err, ErrSigningKeyTooShort) {
			t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
		}
	})
}
