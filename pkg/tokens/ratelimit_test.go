package tokens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/config"
)

func TestRateLimiter_AdmitsUpToLimitThenBlocks(t *testing.T) {
	db := newTestStore(t)
	rl := NewRateLimiter(db, &config.RateLimitConfig{LimitPerWindow: 2})
	ctx := context.Background()

	ok1, err := rl.Admit(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok1)

	ok2, err := rl.Admit(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok2)

	ok3, err := rl.Admit(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok3)
}

func TestRateLimiter_UnlimitedWhenZero(t *testing.T) {
	db := newTestStore(t)
	rl := NewRateLimiter(db, &config.RateLimitConfig{LimitPerWindow: 0})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ok, err := rl.Admit(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestRateLimiter_SeparateUsersDontShareWindow(t *testing.T) {
	db := newTestStore(t)
	rl := NewRateLimiter(db, &config.RateLimitConfig{LimitPerWindow: 1})
	ctx := context.Background()

	ok1, err := rl.Admit(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok1)

	ok2, err := rl.Admit(ctx, "user-2")
	require.NoError(t, err)
	require.True(t, ok2)
}
