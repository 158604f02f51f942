package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Code returns a uniformly random 6-digit decimal code in [100000, 999999].
// Codes are not globally unique; collisions across users are fine.
func Code() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
