// Package events publishes registry and account lifecycle events so other
// instances and downstream consumers can observe ownership changes.
// Publishing is best-effort: a failed publish is logged by callers and never
// fails the mutation that produced it.
package events

import (
	"context"
	"time"
)

// RegisteredEvent is emitted after a token is bound to an executable account.
type RegisteredEvent struct {
	TokenID    uint64    `json:"token_id"`
	Account    string    `json:"account"`
	Controller string    `json:"controller"`
	At         time.Time `json:"at"`
}

// ClaimedEvent is emitted after a successful ownership claim.
type ClaimedEvent struct {
	TokenID            uint64    `json:"token_id"`
	Account            string    `json:"account"`
	PreviousController string    `json:"previous_controller"`
	NewController      string    `json:"new_controller"`
	At                 time.Time `json:"at"`
}

// ExecutedEvent is emitted once per instruction run by an executable account.
type ExecutedEvent struct {
	Account  string    `json:"account"`
	Caller   string    `json:"caller"`
	Target   string    `json:"target"`
	Value    string    `json:"value"`
	DataSize int       `json:"data_size"`
	At       time.Time `json:"at"`
}

// Publisher publishes lifecycle events to notify other instances.
type Publisher interface {
	PublishRegistered(ctx context.Context, event RegisteredEvent) error
	PublishClaimed(ctx context.Context, event ClaimedEvent) error
	PublishExecuted(ctx context.Context, event ExecutedEvent) error
}

// NoopPublisher discards all events. Used when event publishing is disabled.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that discards all events.
func NewNoopPublisher() Publisher {
	return &NoopPublisher{}
}

// PublishRegistered discards the event.
func (n *NoopPublisher) PublishRegistered(ctx context.Context, event RegisteredEvent) error {
	return nil
}

// PublishClaimed discards the event.
func (n *NoopPublisher) PublishClaimed(ctx context.Context, event ClaimedEvent) error {
	return nil
}

// PublishExecuted discards the event.
func (n *NoopPublisher) PublishExecuted(ctx context.Context, event ExecutedEvent) error {
	return nil
}
