// Package passcode generates the short numeric codes delivered to users
// during challenge flows.
package passcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time numeric passcodes.
type Generator interface {
	// Generate returns a new passcode or an error if the random source fails.
	Generate() (string, error)
}

// Numeric generates fixed-length decimal passcodes using crypto/rand.
//
// Codes are drawn uniformly from [0, 10^digits), so leading zeros are valid
// and every code of the configured length is equally likely.
type Numeric struct {
	digits int
	max    *big.Int
}

// NewNumeric returns a Numeric generator producing codes of the given length.
// Lengths outside 4..10 fall back to 6 digits.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = 6
	}

	max := big.NewInt(10)
	max.Exp(max, big.NewInt(int64(digits)), nil)

	return &Numeric{digits: digits, max: max}
}

// Digits returns the configured code length.
func (n *Numeric) Digits() int {
	return n.digits
}

// Generate returns a new zero-padded decimal passcode.
func (n *Numeric) Generate() (string, error) {
	num, err := rand.Int(rand.Reader, n.max)
	if err != nil {
		return "", fmt.Errorf("passcode: random source failed: %w", err)
	}

	return fmt.Sprintf("%0*d", n.digits, num), nil
}
