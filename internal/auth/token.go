package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nassets/internal/core"
)

// Tokens issues and verifies HS256 access tokens. The secret and lifetime
// come from configuration; there is no package-level state.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokens(secret string, lifetime time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		lifetime: lifetime,
	}
}

// Issue creates an access token for the user. The subject claim carries
// the user id; username rides along for debuggability.
func (t *Tokens) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(t.lifetime).Unix(),
		"type":     "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the authenticated user id. Any
// failure (bad signature, wrong algorithm, expiry, malformed subject)
// surfaces as ErrUnauthenticated.
func (t *Tokens) Parse(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, core.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, core.ErrUnauthenticated
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, core.ErrUnauthenticated
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, core.ErrUnauthenticated
	}

	return userID, nil
}
