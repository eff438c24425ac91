package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"exchange-ticket-bot/internal/domain/stats"
	rplatform "exchange-ticket-bot/internal/platform/redis"
)

const (
	// HistoryStreamKey is the stream completed tickets are appended to.
	HistoryStreamKey = "exchange:history"
	// HistoryEventType tags stream entries carrying a stats.HistoryEntry.
	HistoryEventType = "ticket_completed"

	historyStreamMaxLen = 10000
)

// HistoryStream appends completed tickets to a Redis stream for the history worker.
type HistoryStream struct {
	client *rplatform.Client
}

func NewHistoryStream(client *rplatform.Client) *HistoryStream {
	return &HistoryStream{client: client}
}

// Record appends the entry. The stream is capped at roughly historyStreamMaxLen entries.
func (h *HistoryStream) Record(ctx context.Context, e stats.HistoryEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	err = h.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: HistoryStreamKey,
		MaxLen: historyStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":    HistoryEventType,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// DecodeHistory parses the values of a history stream entry.
func DecodeHistory(values map[string]interface{}) (stats.HistoryEntry, error) {
	var e stats.HistoryEntry
	if t, _ := values["type"].(string); t != HistoryEventType {
		return e, fmt.Errorf("unexpected history event type %q", t)
	}
	raw, ok := values["payload"].(string)
	if !ok {
		return e, fmt.Errorf("history event without payload")
	}
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return e, fmt.Errorf("decode history entry: %w", err)
	}
	return e, nil
}
