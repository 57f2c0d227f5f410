package events

// EventPublisherAdapter lets the errors package publish to the bus without
// importing it.
type EventPublisherAdapter struct {
	eventBus *EventBus
}

// NewEventPublisherAdapter creates a new adapter
func NewEventPublisherAdapter(eventBus *EventBus) *EventPublisherAdapter {
	return &EventPublisherAdapter{eventBus: eventBus}
}

// TryPublish accepts only ErrorEvent values.
func (a *EventPublisherAdapter) TryPublish(event any) bool {
	if a == nil || !a.eventBus.HasConsumers() {
		return false
	}

	errorEvent, ok := event.(ErrorEvent)
	if !ok {
		return false
	}
	return a.eventBus.TryPublish(errorEvent)
}
