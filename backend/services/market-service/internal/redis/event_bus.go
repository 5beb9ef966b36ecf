package redisstore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/models"
)

// EventBus fans market events out to every service instance over pub/sub.
type EventBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewEventBus returns bus publishing on channel.
func NewEventBus(client *redis.Client, channel string, logger *zap.Logger) *EventBus {
	return &EventBus{client: client, channel: channel, logger: logger}
}

// Publish sends event to all subscribers.
func (b *EventBus) Publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Run relays every message received on the channel to deliver until ctx is done.
func (b *EventBus) Run(ctx context.Context, deliver func([]byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("subscribed to market events", zap.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			deliver([]byte(msg.Payload))
		}
	}
}
