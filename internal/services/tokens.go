package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	tokenBytes = 32
	pinMin     = 100000
	pinSpan    = 900000
)

// generateSecureToken - 32 случайных байта в hex (64 символа)
func generateSecureToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// generatePin - шестизначный PIN в диапазоне 100000..999999
func generatePin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+pinMin), nil
}
