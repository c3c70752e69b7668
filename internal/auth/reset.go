package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resetAudience scopes reset tokens so session tokens and future token
// kinds can never be replayed against the reset endpoint.
const resetAudience = "academy:password-reset"

// ResetClaims are the registered claims carried by a password-reset token.
type ResetClaims struct {
	jwt.RegisteredClaims
}

// GenerateResetToken issues a short-lived signed token for the given user.
// The token is delivered by email and exchanged once for a new password.
func GenerateResetToken(secretKey, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// ParseResetToken validates a reset token and returns the user id it was
// issued for.
func ParseResetToken(secretKey, tokenString string) (string, error) {
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience(resetAudience), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parse reset token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("reset token missing subject")
	}
	return claims.Subject, nil
}
