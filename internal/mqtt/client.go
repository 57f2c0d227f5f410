package mqtt

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/observability/metrics"
)

// client implements the Client interface.
type client struct {
	config          Config
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	subsMu          sync.RWMutex
	subscriptions   map[string]MessageHandler
	metrics         *metrics.MQTTMetrics
}

// NewClient creates a new MQTT client. m may be nil.
func NewClient(config Config, m *metrics.MQTTMetrics) Client {
	return &client{
		config:        config,
		subscriptions: make(map[string]MessageHandler),
		metrics:       m,
	}
}

func mqttError(err error, category errors.ErrorCategory, operation string) error {
	return errors.New(err).
		Component("mqtt").
		Category(category).
		Context("operation", operation).
		Build()
}

// Connect resolves the broker host and then connects. Attempts within the
// reconnect cooldown are rejected.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return mqttError(errors.NewStd("connection attempt too recent"), errors.CategoryMQTTConnection, "connect")
	}
	c.lastConnAttempt = time.Now()

	u, err := url.Parse(c.config.Broker)
	if err != nil || u.Host == "" {
		if err == nil {
			err = errors.NewStd("broker URL has no host")
		}
		return mqttError(err, errors.CategoryConfiguration, "parse_broker_url")
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return mqttError(err, errors.CategoryNetwork, "resolve_broker")
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(c.config.MaxReconnectDelay)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.internalClient = paho.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return mqttError(errors.NewStd("connection timeout"), errors.CategoryMQTTConnection, "connect")
	}
	if err := token.Error(); err != nil {
		c.incErrors()
		return mqttError(err, errors.CategoryMQTTConnection, "connect")
	}
	return nil
}

func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	return c.PublishWithRetain(ctx, topic, payload, c.config.Retain)
}

// PublishWithRetain sends payload at QoS 0. It waits for the token until the
// publish timeout or ctx expires.
func (c *client) PublishWithRetain(ctx context.Context, topic string, payload []byte, retain bool) error {
	if !c.IsConnected() {
		return mqttError(errors.NewStd("not connected to MQTT broker"), errors.CategoryMQTTConnection, "publish")
	}

	var timer *metrics.PublishTimer
	if c.metrics != nil {
		timer = c.metrics.StartPublishTimer()
	}
	token := c.internalClient.Publish(topic, 0, retain, payload)

	timeout := time.NewTimer(c.config.PublishTimeout)
	defer timeout.Stop()
	select {
	case <-token.Done():
	case <-timeout.C:
		c.incErrors()
		return errors.New(errors.NewStd("publish timeout")).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	case <-ctx.Done():
		return mqttError(ctx.Err(), errors.CategoryCancellation, "publish")
	}
	if err := token.Error(); err != nil {
		c.incErrors()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	if c.metrics != nil {
		timer.ObserveDuration()
		c.metrics.IncrementMessagesDelivered()
		c.metrics.ObserveMessageSize(float64(len(payload)))
	}
	GetLogger().Debug("published message", logger.String("topic", topic), logger.Int("size", len(payload)))
	return nil
}

// Subscribe records the handler and subscribes now when connected. The
// subscription is re-established by onConnect after every reconnect.
func (c *client) Subscribe(topic string, handler MessageHandler) error {
	c.subsMu.Lock()
	c.subscriptions[topic] = handler
	c.subsMu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	return c.subscribe(c.internalClient, topic, handler)
}

func (c *client) subscribe(pc paho.Client, topic string, handler MessageHandler) error {
	token := pc.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		if c.metrics != nil {
			c.metrics.IncrementMessagesReceived(msg.Topic())
		}
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.config.PublishTimeout) {
		return mqttError(errors.NewStd("subscribe timeout"), errors.CategoryMQTTConnection, "subscribe")
	}
	if err := token.Error(); err != nil {
		return mqttError(err, errors.CategoryMQTTConnection, "subscribe")
	}
	GetLogger().Info("subscribed", logger.String("topic", topic))
	return nil
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	pc := c.internalClient
	c.mu.Unlock()
	return pc != nil && pc.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	pc := c.internalClient
	c.mu.Unlock()
	if pc == nil {
		return
	}
	pc.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
}

func (c *client) onConnect(pc paho.Client) {
	GetLogger().Info("connected to MQTT broker", logger.String("broker", c.config.Broker))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}

	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for topic, handler := range c.subscriptions {
		go func() {
			if err := c.subscribe(pc, topic, handler); err != nil {
				GetLogger().Error("resubscribe failed", logger.String("topic", topic), logger.Error(err))
			}
		}()
	}
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	GetLogger().Warn("connection to MQTT broker lost",
		logger.String("broker", c.config.Broker),
		logger.Error(err))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
	c.incErrors()
}

func (c *client) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	if c.metrics != nil {
		c.metrics.IncrementReconnectAttempts()
	}
}

func (c *client) incErrors() {
	if c.metrics != nil {
		c.metrics.IncrementErrors()
	}
}
