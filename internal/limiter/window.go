package limiter

import (
	"context"
	"encoding/hex"
	"time"
)

// PGWindow is a fixed-window request limiter stored in PostgreSQL. Each
// instance owns a scope so different routes keep separate quotas.
type PGWindow struct {
	pool   Querier
	scope  string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewPGWindow allows limit requests per key in every window.
func NewPGWindow(q Querier, scope string, limit int, window time.Duration) *PGWindow {
	return &PGWindow{pool: q, scope: scope, limit: limit, window: window, now: time.Now}
}

// Take counts one request for key in the current window.
func (w *PGWindow) Take(ctx context.Context, key string) (bool, time.Duration, error) {
	const q = `
INSERT INTO request_limits (bucket, window_start, hits)
VALUES ($1, $2, 1)
ON CONFLICT (bucket) DO UPDATE
SET
  hits = CASE WHEN request_limits.window_start = EXCLUDED.window_start THEN request_limits.hits + 1 ELSE 1 END,
  window_start = EXCLUDED.window_start
RETURNING hits`

	now := w.now()
	start := now.Truncate(w.window)
	var hits int
	if err := w.pool.QueryRow(ctx, q, w.bucket(key), start).Scan(&hits); err != nil {
		return false, 0, err
	}
	if hits > w.limit {
		return false, start.Add(w.window).Sub(now), nil
	}
	return true, 0, nil
}

func (w *PGWindow) bucket(key string) string {
	return w.scope + ":" + hex.EncodeToString(HashIP(key))
}
