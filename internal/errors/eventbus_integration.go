// Package errors - event bus integration
package errors

import (
	"sync/atomic"
)

// EventPublisher is an interface for publishing error events.
// It lets this package publish events without importing the events package.
type EventPublisher interface {
	TryPublish(event any) bool
}

// Global event publisher (set by the events package)
var globalEventPublisher atomic.Pointer[EventPublisher]

// SetEventPublisher sets the global event publisher. Passing nil detaches it.
func SetEventPublisher(publisher EventPublisher) {
	if publisher == nil {
		globalEventPublisher.Store(nil)
	} else {
		globalEventPublisher.Store(&publisher)
	}
	updateReportingState()
}

// publishToEventBus publishes an error to the event bus if available
func publishToEventBus(ee *EnhancedError) bool {
	publisherPtr := globalEventPublisher.Load()
	if publisherPtr == nil || *publisherPtr == nil {
		return false
	}
	return (*publisherPtr).TryPublish(ee)
}

// reportToTelemetry publishes to the event bus first and reports
// synchronously only when no publisher accepted the event.
func reportToTelemetry(ee *EnhancedError) {
	if !hasActiveReporting.Load() {
		return
	}

	if publishToEventBus(ee) {
		return
	}

	reportDirect(ee)
}

// updateReportingState recomputes the fast-path flag used by Build.
func updateReportingState() {
	active := globalEventPublisher.Load() != nil
	if r := GetTelemetryReporter(); r != nil && r.IsEnabled() {
		active = true
	}
	hasActiveReporting.Store(active)
}
