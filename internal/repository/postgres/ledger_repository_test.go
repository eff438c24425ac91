//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchange-ticket-bot/internal/platform/db"
)

func setupTestDB(t *testing.T) (*LedgerRepository, *sql.DB, func()) {
	t.Helper()

	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect to database: %v", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	reset := func() {
		_, _ = conn.ExecContext(ctx, "DELETE FROM user_stats")
		_, _ = conn.ExecContext(ctx, "UPDATE global_stats SET total_exchanged = 0")
		_, _ = conn.ExecContext(ctx, "DELETE FROM bot_config")
	}
	reset()

	cleanup := func() {
		reset()
		conn.Close()
	}

	return NewLedgerRepository(conn), conn, cleanup
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLedgerRepository_UserTotals(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	total, err := repo.GetUserTotal(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	total, err = repo.IncrementUserTotal(ctx, "u1", dec("100.50"))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("100.50")))

	total, err = repo.IncrementUserTotal(ctx, "u1", dec("9.50"))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("110")))

	prev, next, err := repo.SubtractUserTotal(ctx, "u1", dec("500"))
	require.NoError(t, err)
	assert.True(t, prev.Equal(dec("110")))
	assert.True(t, next.IsZero())

	prev, next, err = repo.SubtractUserTotal(ctx, "ghost", dec("5"))
	require.NoError(t, err)
	assert.True(t, prev.IsZero())
	assert.True(t, next.IsZero())

	require.NoError(t, repo.SetUserTotal(ctx, "u1", dec("42")))
	total, err = repo.GetUserTotal(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("42")))
}

func TestLedgerRepository_ConcurrentIncrements(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementUserTotal(ctx, "u1", dec("2"))
			assert.NoError(t, err)
			_, err = repo.IncrementGlobalTotal(ctx, dec("2"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, err := repo.GetUserTotal(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("50")))

	global, err := repo.GetGlobalTotal(ctx)
	require.NoError(t, err)
	assert.True(t, global.Equal(dec("50")))
}

func TestLedgerRepository_ListAndConfig(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for id, amt := range map[string]string{"a": "10", "b": "30", "c": "20"} {
		_, err := repo.IncrementUserTotal(ctx, id, dec(amt))
		require.NoError(t, err)
	}
	list, err := repo.ListUsersByTotalDesc(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].UserID)
	assert.Equal(t, "c", list[1].UserID)

	_, ok, err := repo.GetConfig(ctx, "statsChannelId")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetConfig(ctx, "statsChannelId", "1"))
	require.NoError(t, repo.SetConfig(ctx, "statsChannelId", "2"))
	v, ok, err := repo.GetConfig(ctx, "statsChannelId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}
