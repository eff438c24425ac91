package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	cacheredis "exchange-ticket-bot/internal/cache/redis"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/stats"
	rplatform "exchange-ticket-bot/internal/platform/redis"
)

const (
	historyConsumerGroup = "exchange_bot_history"
	historyConsumerName  = "history_worker_1"
)

// HistorySink receives decoded history entries.
type HistorySink interface {
	Record(ctx context.Context, e stats.HistoryEntry) error
}

// HistoryStreamWorker drains the completed-ticket stream into the history channel.
// Entries whose post failed stay pending and are retried every retry interval.
type HistoryStreamWorker struct {
	rdb   *rplatform.Client
	sink  HistorySink
	block time.Duration
	retry time.Duration
	batch int64
}

func NewHistoryStreamWorker(rdb *rplatform.Client, sink HistorySink) *HistoryStreamWorker {
	return &HistoryStreamWorker{rdb: rdb, sink: sink, block: 5 * time.Second, retry: time.Minute, batch: 10}
}

// Start consumes the stream until ctx is cancelled.
func (w *HistoryStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		logger.Error().Err(err).Msg("Error creating history consumer group")
	}

	log := logger.Component("history_worker")
	log.Info().Msg("Starting history stream worker")

	// Entries delivered before a restart but never acknowledged.
	if err := w.replayPending(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Failed to replay pending history entries")
	}
	lastReplay := time.Now()

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Stopping history stream worker")
			return
		}
		if _, _, err := w.read(ctx, ">", w.block); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Error reading history stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if time.Since(lastReplay) >= w.retry {
			if err := w.replayPending(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("Failed to retry pending history entries")
			}
			lastReplay = time.Now()
		}
	}
}

// replayPending walks this consumer's unacknowledged entries batch by batch until
// none are left past the last one seen.
func (w *HistoryStreamWorker) replayPending(ctx context.Context) error {
	id := "0"
	for {
		n, last, err := w.read(ctx, id, -1)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		id = last
	}
}

// read handles one batch starting after id. ">" reads new entries; any other id
// replays this consumer's unacknowledged ones. A negative block does not wait.
// It returns the number of entries handled and the id of the last one.
func (w *HistoryStreamWorker) read(ctx context.Context, id string, block time.Duration) (int, string, error) {
	entries, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    historyConsumerGroup,
		Consumer: historyConsumerName,
		Streams:  []string{cacheredis.HistoryStreamKey, id},
		Count:    w.batch,
		Block:    block,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, id, nil
	}
	if err != nil {
		return 0, id, err
	}
	n, last := 0, id
	for _, stream := range entries {
		for _, msg := range stream.Messages {
			w.process(ctx, msg)
			n++
			last = msg.ID
		}
	}
	return n, last, nil
}

func (w *HistoryStreamWorker) process(ctx context.Context, msg goredis.XMessage) {
	entry, err := cacheredis.DecodeHistory(msg.Values)
	if err != nil {
		// Undecodable entries are acknowledged so they are not redelivered forever.
		logger.Warn().Err(err).Str("id", msg.ID).Msg("Dropping malformed history entry")
		w.ack(ctx, msg.ID)
		return
	}
	if err := w.sink.Record(ctx, entry); err != nil {
		logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to post history entry")
		return
	}
	w.ack(ctx, msg.ID)
}

func (w *HistoryStreamWorker) ack(ctx context.Context, id string) {
	if err := w.rdb.XAck(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup, id).Err(); err != nil {
		logger.Warn().Err(err).Str("id", id).Msg("Failed to acknowledge history entry")
	}
}
