package events

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitors stop via finalizer only
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type recordingConsumer struct {
	name    string
	fail    bool
	panics  bool
	delay   time.Duration
	mu      sync.Mutex
	events  []Event
	counter atomic.Int32
}

func (c *recordingConsumer) Name() string { return c.name }

func (c *recordingConsumer) ProcessEvent(event Event) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.panics {
		panic("consumer exploded")
	}
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.counter.Add(1)
	if c.fail {
		return fmt.Errorf("consumer failed")
	}
	return nil
}

func testBus(t *testing.T, cfg *Config) *EventBus {
	t.Helper()
	bus := New(cfg, logger.NewSlogLogger(&bytes.Buffer{}, logger.LogLevelError, time.UTC))
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	return bus
}

func mustWarning(t *testing.T, warningType string) *WarningEvent {
	t.Helper()
	w, err := NewWarningEvent(warningType, SeverityHigh, "too hot", "greenhouse", 36.5, 35)
	require.NoError(t, err)
	return w
}

func TestPublishWithoutConsumersIsRejected(t *testing.T) {
	bus := testBus(t, nil)
	assert.False(t, bus.TryPublish(mustWarning(t, "temperature_high")))
	assert.False(t, bus.HasConsumers())
}

func TestWarningsReachAllConsumers(t *testing.T) {
	bus := testBus(t, &Config{BufferSize: 10, Workers: 2, Enabled: true})

	a := &recordingConsumer{name: "a"}
	b := &recordingConsumer{name: "b"}
	require.NoError(t, bus.RegisterConsumer(a))
	require.NoError(t, bus.RegisterConsumer(b))
	require.Error(t, bus.RegisterConsumer(&recordingConsumer{name: "a"}), "duplicate names are rejected")

	for _, wt := range []string{"temperature_high", "humidity_low", "soil_moisture_low"} {
		require.True(t, bus.TryPublish(mustWarning(t, wt)))
	}

	require.Eventually(t, func() bool {
		return a.counter.Load() == 3 && b.counter.Load() == 3
	}, time.Second, 5*time.Millisecond)

	stats := bus.GetStats()
	assert.Equal(t, uint64(3), stats.EventsReceived)
	assert.Equal(t, uint64(6), stats.EventsProcessed)
}

func TestConsumerFailuresAreIsolated(t *testing.T) {
	bus := testBus(t, &Config{BufferSize: 10, Workers: 1, Enabled: true})

	good := &recordingConsumer{name: "good"}
	require.NoError(t, bus.RegisterConsumer(&recordingConsumer{name: "panics", panics: true}))
	require.NoError(t, bus.RegisterConsumer(&recordingConsumer{name: "fails", fail: true}))
	require.NoError(t, bus.RegisterConsumer(good))

	require.True(t, bus.TryPublish(mustWarning(t, "temperature_high")))

	require.Eventually(t, func() bool { return good.counter.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return bus.GetStats().ConsumerErrors == 2 }, time.Second, 5*time.Millisecond)
}

func TestFullBufferDropsEvents(t *testing.T) {
	bus := testBus(t, &Config{BufferSize: 1, Workers: 1, Enabled: true})
	slow := &recordingConsumer{name: "slow", delay: 50 * time.Millisecond}
	require.NoError(t, bus.RegisterConsumer(slow))

	accepted := 0
	for range 20 {
		if bus.TryPublish(mustWarning(t, "humidity_high")) {
			accepted++
		}
	}

	assert.Less(t, accepted, 20)
	assert.Positive(t, bus.GetStats().EventsDropped)
}

func TestDuplicateErrorsAreSuppressed(t *testing.T) {
	bus := testBus(t, &Config{BufferSize: 10, Workers: 1, Enabled: true, DedupTTL: time.Minute})
	c := &recordingConsumer{name: "c"}
	require.NoError(t, bus.RegisterConsumer(c))

	build := func() *errors.EnhancedError {
		return errors.Newf("database is locked").Component("datastore").Category(errors.CategoryDatabase).Build()
	}

	assert.True(t, bus.TryPublish(build()))
	assert.False(t, bus.TryPublish(build()))

	// warnings are never suppressed by the bus
	assert.True(t, bus.TryPublish(mustWarning(t, "temperature_high")))
	assert.True(t, bus.TryPublish(mustWarning(t, "temperature_high")))

	assert.Equal(t, uint64(1), bus.GetStats().EventsSuppressed)
}

func TestShutdownDrainsQueue(t *testing.T) {
	bus := New(&Config{BufferSize: 100, Workers: 1, Enabled: true},
		logger.NewSlogLogger(&bytes.Buffer{}, logger.LogLevelError, time.UTC))
	c := &recordingConsumer{name: "c", delay: time.Millisecond}
	require.NoError(t, bus.RegisterConsumer(c))

	for range 20 {
		require.True(t, bus.TryPublish(mustWarning(t, "soil_moisture_low")))
	}

	require.NoError(t, bus.Shutdown(2*time.Second))
	assert.Equal(t, int32(20), c.counter.Load())
	assert.False(t, bus.TryPublish(mustWarning(t, "soil_moisture_low")), "closed bus rejects events")
}

func TestAdapterAcceptsOnlyErrorEvents(t *testing.T) {
	bus := testBus(t, &Config{BufferSize: 10, Workers: 1, Enabled: true})
	adapter := NewEventPublisherAdapter(bus)

	ee := errors.Newf("sensor read failed").Component("sensors").Category(errors.CategorySensor).Build()
	assert.False(t, adapter.TryPublish(ee), "no consumers yet")

	require.NoError(t, bus.RegisterConsumer(&recordingConsumer{name: "c"}))
	assert.True(t, adapter.TryPublish(ee))
	assert.False(t, adapter.TryPublish("not an event"))
	assert.False(t, adapter.TryPublish(mustWarning(t, "temperature_low")))
}

func TestNewWarningEventValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWarningEvent("", SeverityHigh, "", "", 0, 0)
	require.Error(t, err)
	_, err = NewWarningEvent("temperature_high", "critical", "", "", 0, 0)
	require.Error(t, err)
}
