package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Token lifetimes for the two email-proof flows.
const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = time.Hour
)

const tokenBytes = 32

// GenerateToken returns a cryptographically random 64-character hex string
// used for email verification and password reset links.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
