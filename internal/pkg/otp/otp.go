package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewCode generates a uniformly random 6-digit numeric passcode.
// Leading zeros are kept, so the result is always 6 printable digits.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
