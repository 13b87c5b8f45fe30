// Package eventbus provides the event bus for publishing and subscribing to events.
package eventbus

import (
	"pitchtrack-go/core/event"
)

// EventBus is the interface for the event bus.
type EventBus interface {
	// Publish publishes an event to all subscribers.
	// Events are queued for async dispatch. On a full queue ordinary events
	// are dropped; terminal events wait a bounded time for room.
	Publish(e event.Event)

	// Subscribe subscribes to all events.
	// Returns a subscription ID that can be used to unsubscribe.
	Subscribe(handler EventHandler) string

	// SubscribeJob subscribes to events from a specific analysis job.
	// Only events implementing JobEvent with matching JobID will be delivered.
	SubscribeJob(jobID string, handler EventHandler) string

	// Unsubscribe removes a subscription by its ID.
	Unsubscribe(subscriptionID string)

	// Close shuts down the event bus after draining queued events.
	// After Close is called, Publish will be a no-op.
	Close()
}

// EventHandler is a function that handles an event.
type EventHandler func(e event.Event)
