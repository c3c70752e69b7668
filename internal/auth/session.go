package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SessionCookieName is the cookie carrying the bearer token for
	// browser clients.
	SessionCookieName = "academy.session"

	// TokenLength is the length of generated bearer tokens in bytes.
	TokenLength = 32
)

// GenerateBearerToken generates a cryptographically secure random bearer
// token. Returns the token (hex string) and its SHA-256 hex hash; only the
// hash is persisted.
func GenerateBearerToken() (string, string, error) {
	tokenBytes := make([]byte, TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken hashes a bearer token for storage/lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateSession checks expiration, revocation, and account status for a
// session lookup. Any failure means the request is unauthenticated.
func ValidateSession(expiresAt time.Time, revoked bool, accountDisabled bool) error {
	if time.Now().After(expiresAt) {
		return fmt.Errorf("session expired")
	}
	if revoked {
		return fmt.Errorf("session revoked")
	}
	if accountDisabled {
		return fmt.Errorf("account disabled")
	}
	return nil
}
