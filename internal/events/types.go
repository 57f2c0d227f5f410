// Package events provides an asynchronous event bus that decouples warning
// and error producers from publishing, logging and telemetry.
package events

import (
	"time"
)

// Event is anything the bus can carry.
type Event interface {
	// GetComponent returns the component that produced the event
	GetComponent() string

	// GetCategory returns the category used for grouping
	GetCategory() string

	// GetTimestamp returns when the event occurred
	GetTimestamp() time.Time

	// GetMessage returns a human-readable message
	GetMessage() string
}

// ErrorEvent is an error published by the errors package.
// *errors.EnhancedError satisfies it.
type ErrorEvent interface {
	Event
	GetContext() map[string]any
	GetError() error
	IsReported() bool
	MarkReported()
}

// EventConsumer processes events delivered by the bus workers.
type EventConsumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent handles one event. Consumers ignore event types they do not care about.
	ProcessEvent(event Event) error
}

// EventBusStats contains runtime statistics for monitoring
type EventBusStats struct {
	EventsReceived   uint64
	EventsSuppressed uint64
	EventsProcessed  uint64
	EventsDropped    uint64
	ConsumerErrors   uint64
}
