package tokens

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/store"
)

// BudgetStatus is the result of a budget check: whether the estimated cost
// is admissible, plus the usage numbers behind that decision (spec §4.K).
type BudgetStatus struct {
	Allowed   bool
	UsedUSD   float64
	LimitUSD  float64
	Remaining float64
}

// BudgetTracker enforces a per-(user, YYYY-MM) monthly cost ceiling over
// user_monthly_budget. A limit of zero or less means unlimited.
type BudgetTracker struct {
	db  *store.Client
	cfg *config.BudgetConfig
}

// NewBudgetTracker constructs a BudgetTracker over an already-migrated
// store.Client and the configured monthly limit.
func NewBudgetTracker(db *store.Client, cfg *config.BudgetConfig) *BudgetTracker {
	if cfg == nil {
		cfg = config.DefaultBudgetConfig()
	}
	return &BudgetTracker{db: db, cfg: cfg}
}

func yearMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CheckBudget reports whether estimatedCost can be spent this month without
// exceeding the configured limit, alongside the current usage snapshot.
func (b *BudgetTracker) CheckBudget(ctx context.Context, userID string, estimatedCost float64) (*BudgetStatus, error) {
	used, err := b.usedThisMonth(ctx, userID)
	if err != nil {
		return nil, err
	}

	if b.cfg.MonthlyLimitUSD <= 0 {
		return &BudgetStatus{Allowed: true, UsedUSD: used, LimitUSD: 0, Remaining: -1}, nil
	}

	remaining := b.cfg.MonthlyLimitUSD - used
	return &BudgetStatus{
		Allowed:   used+estimatedCost <= b.cfg.MonthlyLimitUSD,
		UsedUSD:   used,
		LimitUSD:  b.cfg.MonthlyLimitUSD,
		Remaining: remaining,
	}, nil
}

func (b *BudgetTracker) usedThisMonth(ctx context.Context, userID string) (float64, error) {
	var used float64
	err := b.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&used)
	}, `SELECT used_usd FROM user_monthly_budget WHERE user_id = ? AND year_month = ?`, userID, yearMonth(time.Now()))
	if errors.Is(err, stdsql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup monthly budget: %w", err)
	}
	return used, nil
}

// LogUsage atomically increments used_usd and request_count for the current
// (user, month) row, creating it if it doesn't exist yet.
func (b *BudgetTracker) LogUsage(ctx context.Context, userID string, costUSD float64) error {
	ym := yearMonth(time.Now())
	now := formatTime(time.Now())

	_, err := b.db.ExecuteInsert(ctx, `
		INSERT INTO user_monthly_budget (user_id, year_month, used_usd, request_count, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (user_id, year_month) DO UPDATE SET
			used_usd = used_usd + excluded.used_usd,
			request_count = request_count + 1,
			updated_at = excluded.updated_at`,
		userID, ym, costUSD, now)
	if err != nil {
		return fmt.Errorf("log budget usage: %w", err)
	}
	return nil
}
