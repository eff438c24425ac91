package redis

import (
	"context"
	"fmt"
	"time"

	rplatform "exchange-ticket-bot/internal/platform/redis"
)

// EventDeduper remembers inbound event ids with SETNX and a TTL equal to the window.
type EventDeduper struct {
	client *rplatform.Client
	window time.Duration
}

func NewEventDeduper(client *rplatform.Client, window time.Duration) *EventDeduper {
	return &EventDeduper{client: client, window: window}
}

func (d *EventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "event:seen:"+eventID, 1, d.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup event: %w", err)
	}
	return !ok, nil
}
