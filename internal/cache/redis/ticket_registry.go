package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"exchange-ticket-bot/internal/domain/exchange"
	rplatform "exchange-ticket-bot/internal/platform/redis"
	"exchange-ticket-bot/internal/state"
)

const (
	ticketKey      = "ticket:channel:%s"
	ownerTicketKey = "tickets:owner:%s"

	fieldData      = "data"
	fieldClaimedBy = "claimed_by"
)

// claimScript sets claimed_by only when the ticket exists and is unclaimed.
// Returns {1, claimer} on success, {0, existing} when already claimed, {-1, ""} when missing.
var claimScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {-1, ''}
end
if redis.call('HSETNX', KEYS[1], 'claimed_by', ARGV[1]) == 1 then
	return {1, ARGV[1]}
end
return {0, redis.call('HGET', KEYS[1], 'claimed_by')}
`)

// TicketRegistry keeps open tickets in Redis so they survive restarts.
// Each ticket is a hash keyed by channel; a set per owner indexes their channels.
type TicketRegistry struct {
	client *rplatform.Client
}

func NewTicketRegistry(client *rplatform.Client) *TicketRegistry {
	return &TicketRegistry{client: client}
}

func (r *TicketRegistry) Add(ctx context.Context, t exchange.Ticket) error {
	claimedBy := t.ClaimedBy
	t.ClaimedBy = ""
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		key := fmt.Sprintf(ticketKey, t.ChannelID)
		p.HSet(ctx, key, fieldData, data)
		if claimedBy != "" {
			p.HSet(ctx, key, fieldClaimedBy, claimedBy)
		}
		p.SAdd(ctx, fmt.Sprintf(ownerTicketKey, t.OwnerID), t.ChannelID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add ticket: %w", err)
	}
	return nil
}

func (r *TicketRegistry) ListByOwner(ctx context.Context, ownerID string) ([]exchange.Ticket, error) {
	setKey := fmt.Sprintf(ownerTicketKey, ownerID)
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list owner tickets: %w", err)
	}
	out := make([]exchange.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := r.FindByChannel(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			// index entry outlived its ticket
			_ = r.client.SRem(ctx, setKey, id).Err()
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *TicketRegistry) FindByChannel(ctx context.Context, channelID string) (*exchange.Ticket, error) {
	fields, err := r.client.HGetAll(ctx, fmt.Sprintf(ticketKey, channelID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return decodeTicket(fields)
}

func (r *TicketRegistry) Claim(ctx context.Context, channelID, claimerID string) (string, bool, error) {
	res, err := claimScript.Run(ctx, r.client, []string{fmt.Sprintf(ticketKey, channelID)}, claimerID).Slice()
	if err != nil {
		return "", false, fmt.Errorf("claim ticket: %w", err)
	}
	if len(res) != 2 {
		return "", false, fmt.Errorf("claim ticket: unexpected reply %v", res)
	}
	status, _ := res[0].(int64)
	who, _ := res[1].(string)
	switch status {
	case 1:
		return who, true, nil
	case 0:
		return who, false, nil
	default:
		return "", false, state.ErrTicketNotFound
	}
}

func (r *TicketRegistry) Remove(ctx context.Context, channelID string) (*exchange.Ticket, error) {
	key := fmt.Sprintf(ticketKey, channelID)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	t, err := decodeTicket(fields)
	if err != nil || t == nil {
		return nil, err
	}
	var del *goredis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.Del(ctx, key)
		p.SRem(ctx, fmt.Sprintf(ownerTicketKey, t.OwnerID), channelID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove ticket: %w", err)
	}
	if del.Val() == 0 {
		// lost a race with another remover
		return nil, nil
	}
	return t, nil
}

func decodeTicket(fields map[string]string) (*exchange.Ticket, error) {
	raw, ok := fields[fieldData]
	if !ok {
		return nil, nil
	}
	var t exchange.Ticket
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	t.ClaimedBy = fields[fieldClaimedBy]
	return &t, nil
}

var (
	_ state.TicketRegistry = (*TicketRegistry)(nil)
	_ state.SelectionStore = (*SelectionCache)(nil)
	_ state.Deduper        = (*EventDeduper)(nil)
)
