package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of randomness behind every session token (256 bits).
const TokenBytes = 32

// GenerateToken returns an opaque, URL-safe session token.
func GenerateToken() (string, error) {
	const op = "auth.GenerateToken"

	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// WellFormedToken reports whether token has the shape GenerateToken produces.
func WellFormedToken(token string) bool {
	if len(token) != base64.RawURLEncoding.EncodedLen(TokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil
}
