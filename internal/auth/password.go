// Package auth holds credential hashing and bearer token issuance.
package auth

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for stored password hashes.
const BcryptCost = 10

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]{6,}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// HashPassword returns a bcrypt hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidatePassword reports whether plaintext matches hash.
func ValidatePassword(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IsValidPasswordFormat accepts at least six characters from the allowed set
// with at least one letter and one digit.
func IsValidPasswordFormat(plaintext string) bool {
	return passwordCharset.MatchString(plaintext) &&
		hasLetter.MatchString(plaintext) &&
		hasDigit.MatchString(plaintext)
}
