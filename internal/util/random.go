package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a session token: 256 bits, rendered as a
// 64-character hex string.
const tokenBytes = 32

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

// SessionToken returns a 256-bit random token as a fixed-length hex string.
func SessionToken() (string, error) {
	b, err := RandomBytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
