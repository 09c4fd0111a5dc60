package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/store"
)

// RateLimiter enforces a per-user sliding-window admission control over
// rate_limit_tracker (spec §4.K): prune rows older than the window, count
// what remains, admit if under the configured limit, then record the
// admission. A limit of zero or less means unlimited.
type RateLimiter struct {
	db  *store.Client
	cfg *config.RateLimitConfig
}

// NewRateLimiter constructs a RateLimiter over an already-migrated
// store.Client and the configured window/limit.
func NewRateLimiter(db *store.Client, cfg *config.RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = config.DefaultRateLimitConfig()
	}
	return &RateLimiter{db: db, cfg: cfg}
}

// Admit prunes stale entries for userID, counts what remains within the
// window, and — if under the limit — records this request and returns true.
// Unlimited (LimitPerWindow <= 0) always admits without touching the table.
func (r *RateLimiter) Admit(ctx context.Context, userID string) (bool, error) {
	if r.cfg.LimitPerWindow <= 0 {
		return true, nil
	}

	now := time.Now()
	cutoff := now.Add(-r.cfg.Window).UnixMilli()

	if _, err := r.db.Execute(ctx, `DELETE FROM rate_limit_tracker WHERE user_id = ? AND requested_at_ms < ?`, userID, cutoff); err != nil {
		return false, fmt.Errorf("prune rate limit tracker: %w", err)
	}

	var count int
	if err := r.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&count)
	}, `SELECT COUNT(*) FROM rate_limit_tracker WHERE user_id = ? AND requested_at_ms >= ?`, userID, cutoff); err != nil {
		return false, fmt.Errorf("count rate limit tracker: %w", err)
	}

	if count >= r.cfg.LimitPerWindow {
		return false, nil
	}

	if _, err := r.db.ExecuteInsert(ctx, `INSERT INTO rate_limit_tracker (user_id, requested_at_ms) VALUES (?, ?)`, userID, now.UnixMilli()); err != nil {
		return false, fmt.Errorf("record rate limit admission: %w", err)
	}
	return true, nil
}
