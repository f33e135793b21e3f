// Package auth provides password hashing for IEstagram accounts.
//
// Passwords are hashed with bcrypt. Accounts created before hashing was
// introduced still carry plaintext passwords, so verification falls back to
// a constant-time plaintext comparison when the stored value is not a bcrypt
// hash. Such accounts are upgraded to a hash on their next successful login
// by the route layer.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored credential, which
// is either a bcrypt hash or a legacy plaintext password.
func CheckPassword(plain, stored string) bool {
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
}

// IsHashed reports whether the stored credential is a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
