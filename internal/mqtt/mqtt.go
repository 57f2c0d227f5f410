// Package mqtt wraps the paho client for reading ingestion, warning
// publication and Home Assistant discovery.
package mqtt

import (
	"context"
	"time"

	"github.com/farmwatch/farmwatch/internal/conf"
)

// MessageHandler receives the topic and payload of one incoming message.
type MessageHandler func(topic string, payload []byte)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message using the configured retain flag.
	Publish(ctx context.Context, topic string, payload []byte) error

	// PublishWithRetain sends a message with an explicit retain flag.
	PublishWithRetain(ctx context.Context, topic string, payload []byte, retain bool) error

	// Subscribe registers a handler. Subscriptions survive reconnects.
	Subscribe(topic string, handler MessageHandler) error

	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()

	// TestConnection runs the staged connectivity check and streams results.
	TestConnection(ctx context.Context, resultChan chan<- TestResult)
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // topic carrying incoming readings
	Retain            bool   // true to retain published messages
	ReconnectCooldown time.Duration
	MaxReconnectDelay time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		ClientID:          "farmwatch",
		ReconnectCooldown: 5 * time.Second,
		MaxReconnectDelay: 5 * time.Minute,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings maps sensors.mqtt onto a client Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	ms := settings.Sensors.MQTT
	cfg.Broker = ms.Broker
	if ms.ClientID != "" {
		cfg.ClientID = ms.ClientID
	}
	cfg.Username = ms.Username
	cfg.Password = ms.Password
	cfg.Topic = ms.Topic
	cfg.Retain = ms.Retain
	return cfg
}
