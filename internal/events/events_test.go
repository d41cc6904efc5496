package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisher_PublishClaimed(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), topicClaimed)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub)
	event := ClaimedEvent{
		TokenID:            42,
		Account:            "0x00000000000000000000000000000000000000aa",
		PreviousController: "0x1111111111111111111111111111111111111111",
		NewController:      "0x2222222222222222222222222222222222222222",
		At:                 time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishClaimed(context.Background(), event))

	select {
	case msg := <-messages:
		msg.Ack()
		var got ClaimedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event.TokenID, got.TokenID)
		assert.Equal(t, event.NewController, got.NewController)
		assert.Equal(t, "42", msg.Metadata.Get("partition_key"))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillPublisher_PublishExecuted(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), topicExecuted)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub)
	event := ExecutedEvent{
		Account:  "0x00000000000000000000000000000000000000aa",
		Caller:   "0x1111111111111111111111111111111111111111",
		Target:   "0x3333333333333333333333333333333333333333",
		Value:    "1000000000000000000",
		DataSize: 36,
		At:       time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishExecuted(context.Background(), event))

	select {
	case msg := <-messages:
		msg.Ack()
		var got ExecutedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event.Target, got.Target)
		assert.Equal(t, event.DataSize, got.DataSize)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNewRedisPublisher_InvalidURL(t *testing.T) {
	_, err := NewRedisPublisher("not-a-url")
	require.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	assert.NoError(t, p.PublishRegistered(context.Background(), RegisteredEvent{}))
	assert.NoError(t, p.PublishClaimed(context.Background(), ClaimedEvent{}))
	assert.NoError(t, p.PublishExecuted(context.Background(), ExecutedEvent{}))
}
