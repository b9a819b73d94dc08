// Package auth implements the shared-passphrase login and session tokens.
// The site crew shares one passphrase; elevated sessions additionally know
// the elevated passphrase. There are no per-user accounts.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadPassphrase is returned when a passphrase does not match.
var ErrBadPassphrase = errors.New("passphrase does not match")

// HashPassphrase returns the bcrypt hash used in config files.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassphrase checks a passphrase against the configured value. A
// bcrypt hash is compared with bcrypt; any other stored value is compared
// as plain text so dev setups can skip hashing.
func VerifyPassphrase(stored, passphrase string) error {
	if stored == "" {
		return ErrBadPassphrase
	}
	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(passphrase)); err != nil {
			return ErrBadPassphrase
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(passphrase)) != 1 {
		return ErrBadPassphrase
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
