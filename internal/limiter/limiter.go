// Package limiter defines interfaces and implementations for login lockout
// and per-client request rate limiting.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, username string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
}

// RequestLimiter caps how many requests a key may issue per window.
type RequestLimiter interface {
	// Take consumes one request for key. When the quota is exhausted it
	// returns false and the time until the window resets.
	Take(ctx context.Context, key string) (bool, time.Duration, error)
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Nop never limits anything. Used when rate limiting is disabled.
type Nop struct{}

func (Nop) Allow(context.Context, string, []byte) (bool, time.Duration, error)   { return true, 0, nil }
func (Nop) Success(context.Context, string, []byte) error                        { return nil }
func (Nop) Failure(context.Context, string, []byte) (bool, time.Duration, error) { return false, 0, nil }
func (Nop) Take(context.Context, string) (bool, time.Duration, error)            { return true, 0, nil }

var (
	_ Limiter        = Nop{}
	_ RequestLimiter = Nop{}
	_ Limiter        = (*PG)(nil)
	_ RequestLimiter = (*PGWindow)(nil)
)
