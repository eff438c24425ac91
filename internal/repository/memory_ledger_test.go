package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_UserTotals(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	total, err := l.GetUserTotal(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	total, err = l.IncrementUserTotal(ctx, "u1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(100)))

	prev, next, err := l.SubtractUserTotal(ctx, "u1", decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, prev.Equal(decimal.NewFromInt(100)))
	assert.True(t, next.Equal(decimal.NewFromInt(70)))

	prev, next, err = l.SubtractUserTotal(ctx, "u1", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, prev.Equal(decimal.NewFromInt(70)))
	assert.True(t, next.IsZero(), "clamped at zero")

	require.NoError(t, l.SetUserTotal(ctx, "u1", decimal.NewFromInt(-5)))
	total, _ = l.GetUserTotal(ctx, "u1")
	assert.True(t, total.IsZero())
}

func TestMemoryLedger_ListOrdering(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	for i, id := range []string{"a", "b", "c", "d"} {
		_, err := l.IncrementUserTotal(ctx, id, decimal.NewFromInt(int64((i%2+1)*10)))
		require.NoError(t, err)
	}
	// a=10 b=20 c=10 d=20
	list, err := l.ListUsersByTotalDesc(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"b", "d", "a", "c"}, []string{list[0].UserID, list[1].UserID, list[2].UserID, list[3].UserID})

	top, err := l.ListUsersByTotalDesc(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestMemoryLedger_GlobalAndConfig(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.IncrementGlobalTotal(ctx, decimal.RequireFromString("2.50"))
		}()
	}
	wg.Wait()
	g, err := l.GetGlobalTotal(ctx)
	require.NoError(t, err)
	assert.True(t, g.Equal(decimal.NewFromInt(50)))

	_, ok, err := l.GetConfig(ctx, "leaderboardChannelId")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.SetConfig(ctx, "leaderboardChannelId", "123"))
	v, ok, err := l.GetConfig(ctx, "leaderboardChannelId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123", v)
}
