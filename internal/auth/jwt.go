// Package auth issues and verifies HS256 bearer tokens carrying a user id.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const leeway = 30 * time.Second

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Tokens signs and verifies access tokens.
type Tokens struct {
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokens constructs a token service with the given signing key and TTL.
func NewTokens(signKey []byte, accessTTL time.Duration) *Tokens {
	return &Tokens{signKey: signKey, accessTTL: accessTTL, now: time.Now}
}

// Issue creates a signed HS256 JWT for the given user id.
func (t *Tokens) Issue(userID int64) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.signKey)
	return signed, exp, err
}

// Verify checks signature and expiry and returns the subject as a user id.
func (t *Tokens) Verify(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.signKey, nil
	}, jwt.WithLeeway(leeway), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <JWT>" header value.
func BearerToken(header string) (string, bool) {
	v := strings.TrimSpace(header)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if tok := strings.TrimSpace(v[7:]); tok != "" {
			return tok, true
		}
	}
	return "", false
}
