package crypt

import (
	"bytes"
	"errors"
	"testing"
)

func testEncryptor() *AESGCMEncryptor {
	return NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("0123456789abcdef0123456789abcdef")})
}

func TestAESGCMEncryptor(t *testing.T) {
	scope := Scope{UserID: 42, Purpose: PurposeChallengeCode}

	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()

		// Act
		sealed, err := enc.Encrypt([]byte("734519"), scope)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		plain, err := enc.Decrypt(sealed, scope)

		// Assert
		if err != nil {
			t.Fatalf("decrypt failed: %v", err)
		}
		if !bytes.Equal(plain, []byte("734519")) {
			t.Fatalf("round trip mismatch: %q", plain)
		}
	})

	t.Run("WrongScopeFails", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()
		sealed, err := enc.Encrypt([]byte("734519"), scope)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}

		// Act
		_, userErr := enc.Decrypt(sealed, Scope{UserID: 43, Purpose: PurposeChallengeCode})
		_, purposeErr := enc.Decrypt(sealed, Scope{UserID: 42, Purpose: PurposeTOTPSecret})

		// Assert
		if !errors.Is(userErr, ErrDecryptFailed) {
			t.Fatalf("expected decrypt failure for foreign user, got %v", userErr)
		}
		if !errors.Is(purposeErr, ErrDecryptFailed) {
			t.Fatalf("expected decrypt failure across purposes, got %v", purposeErr)
		}
	})

	t.Run("TamperedCiphertextFails", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()
		sealed, err := enc.Encrypt([]byte("734519"), scope)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		sealed[len(sealed)-1] ^= 0x01

		// Act
		_, err = enc.Decrypt(sealed, scope)

		// Assert
		if !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("expected decrypt failure, got %v", err)
		}
	})

	t.Run("EmptyPlaintextRejected", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()

		// Act
		_, err := enc.Encrypt(nil, scope)

		// Assert
		if !errors.Is(err, ErrPlaintextEmpty) {
			t.Fatalf("expected ErrPlaintextEmpty, got %v", err)
		}
	})

	t.Run("TruncatedCiphertextRejected", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()

		// Act
		_, err := enc.Decrypt([]byte{0, 1, 2}, scope)

		// Assert
		if !errors.Is(err, ErrCiphertextTooShort) {
			t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
		}
	})

	t.Run("MissingStaticKeyRejected", func(t *testing.T) {
		// Arrange
		enc := NewAESGCMEncryptor(StaticKeyProvider{})

		// Act
		_, err := enc.Encrypt([]byte("734519"), scope)

		// Assert
		if !errors.Is(err, ErrMissingStaticKey) {
			t.Fatalf("expected ErrMissingStaticKey, got %v", err)
		}
	})

	t.Run("WrongKeyLengthRejected", func(t *testing.T) {
		// Arrange
		enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("too-short")})

		// Act
		_, err := enc.Encrypt([]byte("734519"), scope)

		// Assert
		if !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
		}
	})
}
