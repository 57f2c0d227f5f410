package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/events"
)

const publishTimeout = 10 * time.Second

// WarningPublisher forwards warnings from the event bus to the warning topic.
// Other events are ignored.
type WarningPublisher struct {
	client Client
	topic  string
}

// NewWarningPublisher creates an event consumer publishing to topic.
func NewWarningPublisher(client Client, topic string) *WarningPublisher {
	return &WarningPublisher{client: client, topic: topic}
}

func (p *WarningPublisher) Name() string { return "mqtt-warnings" }

// ProcessEvent implements events.EventConsumer.
func (p *WarningPublisher) ProcessEvent(event events.Event) error {
	w, ok := event.(*events.WarningEvent)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(NewWarningMessage(w))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryProcessing).
			Context("operation", "marshal_warning").
			Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return p.client.Publish(ctx, p.topic, payload)
}

// StatePublisher publishes collected readings on the state topic.
type StatePublisher struct {
	client Client
	topic  string
}

// NewStatePublisher creates a publisher for the state topic.
func NewStatePublisher(client Client, topic string) *StatePublisher {
	return &StatePublisher{client: client, topic: topic}
}

// PublishReading sends one reading. Readings are dropped while disconnected.
func (p *StatePublisher) PublishReading(ctx context.Context, d *datastore.EnvironmentData) error {
	if !p.client.IsConnected() {
		return nil
	}
	payload, err := json.Marshal(NewStateMessage(d))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryProcessing).
			Context("operation", "marshal_state").
			Build()
	}
	return p.client.Publish(ctx, p.topic, payload)
}
