package botconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchange-ticket-bot/internal/repository"
)

type failingBackend struct{ repository.Ledger }

func (failingBackend) SetConfig(context.Context, string, string) error { return errors.New("db down") }

func TestStore_LoadAndSet(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	require.NoError(t, ledger.SetConfig(ctx, "leaderboardChannelId", "lb-1"))

	s := NewStore(ledger)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, "lb-1", s.Get().LeaderboardChannelID)
	assert.Empty(t, s.Get().StatsChannelID)

	require.NoError(t, s.Set(ctx, LeaderboardMessage, "msg-9"))
	assert.Equal(t, "msg-9", s.Get().LeaderboardMessageID)

	v, ok, err := ledger.GetConfig(ctx, "leaderboardMessageId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "msg-9", v)
}

func TestStore_SetFailureLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingBackend{repository.NewMemoryLedger()})

	err := s.Set(ctx, StatsChannel, "x")
	require.Error(t, err)
	assert.Empty(t, s.Get().StatsChannelID)
}
