package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"survai/internal/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultRelayChannel is the Redis pub/sub channel carrying progress envelopes
const DefaultRelayChannel = "survai:progress"

// Envelope is one relayed broadcast
type Envelope struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ProgressBus relays broadcasts through Redis pub/sub so every server
// instance can forward them to its own WebSocket subscribers.
// Delivery is at most once.
type ProgressBus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewProgressBus(rdb *redis.Client, log *logger.Logger) *ProgressBus {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressBus{
		log:     log.With("service", "ProgressBus"),
		rdb:     rdb,
		channel: DefaultRelayChannel,
	}
}

// Broadcast publishes without blocking the caller on errors; failures are logged
func (b *ProgressBus) Broadcast(channel string, msgType string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Publish(ctx, channel, msgType, payload); err != nil {
		b.log.Warn("progress publish failed", "channel", channel, "type", msgType, "error", err)
	}
}

func (b *ProgressBus) Publish(ctx context.Context, channel string, msgType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Envelope{Channel: channel, Type: msgType, Payload: data})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and invokes onMsg for every envelope until ctx ends
func (b *ProgressBus) StartForwarder(ctx context.Context, onMsg func(env Envelope)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					b.log.Warn("bad progress payload", "error", err)
					continue
				}
				onMsg(env)
			}
		}
	}()

	return nil
}
