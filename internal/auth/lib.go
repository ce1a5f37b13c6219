package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for stored passwords.
const PasswordCost = 12

// MinPasswordCost is the lowest work factor HashPassword accepts outside of tests.
const MinPasswordCost = 10

// prehash folds a password of any length into 44 bytes, under bcrypt's 72 byte limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches the bcrypt hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(password))
	return err == nil
}

// NormalizeEmail trims and lower-cases an address before any lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BearerToken extracts the token from an Authorization header value.
// A missing "Bearer " prefix leaves the value as is.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// DummyHash returns a throwaway hash at cost, for logins that match no account.
func DummyHash(cost int) (string, error) {
	return HashPassword("not-a-real-password", cost)
}

// CheckPasswordOrDummy verifies password against hash, or burns an equivalent
// comparison against dummy when hash is empty.
func CheckPasswordOrDummy(hash, dummy, password string) bool {
	if hash == "" {
		_ = CheckPasswordHash(dummy, password)
		return false
	}
	return CheckPasswordHash(hash, password)
}
