package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"exchange-ticket-bot/internal/domain/exchange"
	rplatform "exchange-ticket-bot/internal/platform/redis"
)

// SelectionCache stores wizard selections as JSON with a sliding TTL.
type SelectionCache struct {
	client *rplatform.Client
	ttl    time.Duration
}

func NewSelectionCache(client *rplatform.Client, ttl time.Duration) *SelectionCache {
	return &SelectionCache{client: client, ttl: ttl}
}

func (c *SelectionCache) key(userID string) string { return fmt.Sprintf("selection:user:%s", userID) }

// Get returns nil when the user has no selection or it expired.
func (c *SelectionCache) Get(ctx context.Context, userID string) (*exchange.SelectionState, error) {
	v, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get selection: %w", err)
	}
	var s exchange.SelectionState
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return &s, nil
}

// Set stores the selection and restarts its TTL.
func (c *SelectionCache) Set(ctx context.Context, s *exchange.SelectionState) error {
	cp := s.Clone()
	cp.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(s.UserID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set selection: %w", err)
	}
	return nil
}

// Delete removes the user's selection.
func (c *SelectionCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}
