package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes sizes refresh tokens: 32 random bytes, 64 hex characters.
const tokenBytes = 32

// NewRefreshToken generates the opaque token a client presents to rotate a
// session without re-authenticating.
func NewRefreshToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
