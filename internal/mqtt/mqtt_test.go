package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/events"
)

type published struct {
	topic   string
	payload []byte
	retain  bool
}

// fakeClient records publishes instead of talking to a broker.
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	messages  []published
	handlers  map[string]MessageHandler
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, handlers: map[string]MessageHandler{}}
}

func (f *fakeClient) Connect(context.Context) error { return nil }

func (f *fakeClient) Publish(ctx context.Context, topic string, payload []byte) error {
	return f.PublishWithRetain(ctx, topic, payload, false)
}

func (f *fakeClient) PublishWithRetain(_ context.Context, topic string, payload []byte, retain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic: topic, payload: payload, retain: retain})
	return nil
}

func (f *fakeClient) Subscribe(topic string, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Disconnect()       { f.connected = false }

func (f *fakeClient) TestConnection(context.Context, chan<- TestResult) {}

func (f *fakeClient) sent() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.messages...)
}

func TestWarningPublisher(t *testing.T) {
	t.Parallel()

	fc := newFakeClient()
	p := NewWarningPublisher(fc, "farmwatch/warnings")
	assert.Equal(t, "mqtt-warnings", p.Name())

	w, err := events.NewWarningEvent("temperature_high", events.SeverityHigh, "too hot", "greenhouse", 36.5, 35)
	require.NoError(t, err)
	w.RecordID = 7
	w.Title = "[HIGH] Temperature High warning"

	require.NoError(t, p.ProcessEvent(w))
	require.NoError(t, p.ProcessEvent(errors.Newf("unrelated").Component("sensors").Build()))

	msgs := fc.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "farmwatch/warnings", msgs[0].topic)

	var got WarningMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "temperature_high", got.Type)
	assert.Equal(t, "high", got.Severity)
	assert.Equal(t, "greenhouse", got.Location)
	assert.InDelta(t, 36.5, got.Value, 1e-9)
}

func TestStatePublisherSkipsWhenDisconnected(t *testing.T) {
	t.Parallel()

	temp := 21.5
	reading := &datastore.EnvironmentData{Timestamp: time.Now(), Temperature: &temp, Location: "field"}

	fc := newFakeClient()
	p := NewStatePublisher(fc, "farmwatch/state")
	require.NoError(t, p.PublishReading(context.Background(), reading))

	msgs := fc.sent()
	require.Len(t, msgs, 1)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].payload, &raw))
	assert.InDelta(t, 21.5, raw["temperature"], 1e-9)
	assert.NotContains(t, raw, "humidity")

	fc.Disconnect()
	require.NoError(t, p.PublishReading(context.Background(), reading))
	assert.Len(t, fc.sent(), 1)
}

func TestDiscovery(t *testing.T) {
	t.Parallel()

	fc := newFakeClient()
	p := NewDiscoveryPublisher(fc, &DiscoveryConfig{
		DiscoveryPrefix: "homeassistant",
		StateTopic:      "farmwatch/state",
		WarningTopic:    "farmwatch/warnings",
		DeviceName:      "Jujube Orchard",
		NodeID:          "Jujube Orchard #1",
		Version:         "1.0.0",
	})
	require.NoError(t, p.PublishDiscovery(context.Background()))

	msgs := fc.sent()
	require.Len(t, msgs, len(Sensors)+1)
	for _, m := range msgs {
		assert.True(t, m.retain)
	}
	assert.Equal(t, "homeassistant/sensor/jujube_orchard_1/jujube_orchard_1_temperature/config", msgs[0].topic)

	var first DiscoveryPayload
	require.NoError(t, json.Unmarshal(msgs[0].payload, &first))
	assert.Equal(t, "farmwatch_jujube_orchard_1_temperature", first.UniqueID)
	assert.Equal(t, "farmwatch/state", first.StateTopic)
	assert.Equal(t, "°C", first.UnitOfMeasurement)
	require.NotNil(t, first.Origin)
	assert.Equal(t, "FarmWatch", first.Origin.Name)

	var last DiscoveryPayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].payload, &last))
	assert.Equal(t, "farmwatch/warnings", last.StateTopic)

	require.NoError(t, p.RemoveDiscovery(context.Background()))
	removed := fc.sent()[len(msgs):]
	require.Len(t, removed, len(Sensors)+1)
	assert.Empty(t, removed[0].payload)
}

func TestSanitizeID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Farm 1":         "farm_1",
		"__a//b__":       "a_b",
		"":               "unknown",
		"jujube-orchard": "jujube-orchard",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeID(in), in)
	}
}

func TestBrokerHostPort(t *testing.T) {
	t.Parallel()

	host, hp, err := brokerHostPort("tcp://broker.local:1884")
	require.NoError(t, err)
	assert.Equal(t, "broker.local", host)
	assert.Equal(t, "broker.local:1884", hp)

	_, hp, err = brokerHostPort("ssl://10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8883", hp)

	_, _, err = brokerHostPort("not a url")
	require.Error(t, err)

	assert.Equal(t, "farmwatch/test", testTopic(""))
	assert.Equal(t, "farm/readings/test", testTopic("farm/readings/"))
}

func TestClientRequiresConnection(t *testing.T) {
	t.Parallel()

	c := NewClient(DefaultConfig(), nil)
	assert.False(t, c.IsConnected())

	err := c.Publish(context.Background(), "x", []byte("y"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))

	// subscriptions are remembered until connect
	require.NoError(t, c.Subscribe("farmwatch/readings", func(string, []byte) {}))
	c.Disconnect()
}

func TestConnectRejectsInvalidBroker(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Broker = "localhost-without-scheme"
	c := NewClient(cfg, nil)

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	err = c.Connect(context.Background())
	require.Error(t, err, "second attempt falls inside the cooldown")
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}

func TestConnectionTestReportsInvalidBroker(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Broker = "::bad"
	c := NewClient(cfg, nil)

	results := make(chan TestResult, 4)
	c.TestConnection(context.Background(), results)
	close(results)

	var got []TestResult
	for r := range results {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	assert.False(t, got[0].Success)
	assert.Equal(t, "failed", got[0].State)
	assert.Equal(t, DNSResolution.String(), got[0].Stage)
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{}
	s.Sensors.MQTT = conf.MQTTSettings{
		Broker: "tcp://10.0.0.2:1883",
		Topic:  "farm/readings",
		Retain: true,
	}
	cfg := ConfigFromSettings(s)
	assert.Equal(t, "farmwatch", cfg.ClientID, "empty client id keeps the default")
	assert.Equal(t, "farm/readings", cfg.Topic)
	assert.True(t, cfg.Retain)
	assert.Equal(t, 10*time.Second, cfg.PublishTimeout)
}
