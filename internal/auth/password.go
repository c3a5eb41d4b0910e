package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

const specialChars = "!@#$%^&*(),.?\":{}|<>_-+=[]\\/'`~"

var (
	ErrPasswordTooShort  = fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	ErrPasswordUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordDigit     = errors.New("password must contain at least one digit")
	ErrPasswordSpecial   = errors.New("password must contain at least one special character")
)

// ValidatePassword checks the strength requirements enforced at
// registration time.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	switch {
	case !upper:
		return ErrPasswordUppercase
	case !lower:
		return ErrPasswordLowercase
	case !digit:
		return ErrPasswordDigit
	case !special:
		return ErrPasswordSpecial
	}
	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
