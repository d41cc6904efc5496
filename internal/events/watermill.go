package events

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

const (
	topicRegistered = "tokenward.registry.registered"
	topicClaimed    = "tokenward.registry.claimed"
	topicExecuted   = "tokenward.account.executed"
)

// WatermillPublisher publishes lifecycle events through a watermill
// message.Publisher, one topic per event type.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a publisher on top of an existing watermill
// publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// NewRedisPublisher creates a publisher backed by a Redis stream.
func NewRedisPublisher(redisURL string) (*WatermillPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid redis url")
	}
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redis.NewClient(opts)},
		watermill.NewSlogLogger(nil),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "failed to create redis publisher")
	}
	return NewWatermillPublisher(publisher), nil
}

// PublishRegistered publishes a RegisteredEvent.
func (p *WatermillPublisher) PublishRegistered(ctx context.Context, event RegisteredEvent) error {
	return p.publish(topicRegistered, strconv.FormatUint(event.TokenID, 10), event)
}

// PublishClaimed publishes a ClaimedEvent.
func (p *WatermillPublisher) PublishClaimed(ctx context.Context, event ClaimedEvent) error {
	return p.publish(topicClaimed, strconv.FormatUint(event.TokenID, 10), event)
}

// PublishExecuted publishes an ExecutedEvent.
func (p *WatermillPublisher) PublishExecuted(ctx context.Context, event ExecutedEvent) error {
	return p.publish(topicExecuted, event.Account, event)
}

func (p *WatermillPublisher) publish(topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("partition_key", key)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return apperrors.Wrap(err, "failed to publish event")
	}
	return nil
}
