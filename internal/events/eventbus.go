package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/farmwatch/farmwatch/internal/logger"
)

// EventBus provides asynchronous event processing with non-blocking publishing.
type EventBus struct {
	eventChan chan Event

	bufferSize int
	workers    int

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	initialized atomic.Bool
	running     atomic.Bool
	mu          sync.Mutex

	consumers []EventConsumer

	// recent error keys; repeats inside the TTL are suppressed
	dedup *cache.Cache

	stats  EventBusStats
	logger logger.Logger
}

// Config holds event bus configuration
type Config struct {
	BufferSize int
	Workers    int
	Enabled    bool
	// DedupTTL suppresses identical error events for this long. Zero disables it.
	DedupTTL time.Duration
}

// DefaultConfig returns the default event bus configuration
func DefaultConfig() *Config {
	return &Config{
		BufferSize: 1000,
		Workers:    2,
		Enabled:    true,
		DedupTTL:   5 * time.Minute,
	}
}

var (
	globalEventBus *EventBus
	globalMutex    sync.Mutex
)

// New creates a standalone event bus. Workers start with the first consumer.
func New(config *Config, log logger.Logger) *EventBus {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if log == nil {
		log = GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		eventChan:  make(chan Event, config.BufferSize),
		bufferSize: config.BufferSize,
		workers:    config.Workers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     log,
	}
	if config.DedupTTL > 0 {
		eb.dedup = cache.New(config.DedupTTL, 2*config.DedupTTL)
	}
	eb.initialized.Store(true)

	return eb
}

// Initialize creates or returns the global event bus instance.
// A disabled config returns nil without error.
func Initialize(config *Config) (*EventBus, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalEventBus != nil {
		return globalEventBus, nil
	}
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Enabled {
		return nil, nil
	}

	globalEventBus = New(config, GetLogger())
	globalEventBus.logger.Info("event bus initialized",
		logger.Int("buffer_size", config.BufferSize),
		logger.Int("workers", config.Workers))

	return globalEventBus, nil
}

// GetEventBus returns the global event bus instance, or nil
func GetEventBus() *EventBus {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	return globalEventBus
}

// RegisterConsumer adds a consumer. The first consumer starts the workers.
func (eb *EventBus) RegisterConsumer(consumer EventConsumer) error {
	if eb == nil {
		return fmt.Errorf("event bus not initialized")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, existing := range eb.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}

	eb.consumers = append(eb.consumers, consumer)
	eb.logger.Info("registered event consumer", logger.String("consumer", consumer.Name()))

	if len(eb.consumers) == 1 && !eb.running.Load() {
		eb.start()
	}

	return nil
}

// HasConsumers reports whether any consumer is registered.
func (eb *EventBus) HasConsumers() bool {
	if eb == nil {
		return false
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.consumers) > 0
}

// TryPublish enqueues an event without blocking.
// It returns false when the event was dropped or suppressed.
func (eb *EventBus) TryPublish(event Event) bool {
	if eb == nil || event == nil || !eb.initialized.Load() || !eb.running.Load() {
		return false
	}

	if eb.isDuplicate(event) {
		atomic.AddUint64(&eb.stats.EventsSuppressed, 1)
		return false
	}

	select {
	case eb.eventChan <- event:
		atomic.AddUint64(&eb.stats.EventsReceived, 1)
		return true
	default:
		atomic.AddUint64(&eb.stats.EventsDropped, 1)
		eb.logger.Debug("event dropped due to full buffer",
			logger.String("component", event.GetComponent()),
			logger.String("category", event.GetCategory()))
		return false
	}
}

// isDuplicate only applies to error events; warnings are deduplicated upstream.
func (eb *EventBus) isDuplicate(event Event) bool {
	if eb.dedup == nil {
		return false
	}
	if _, ok := event.(ErrorEvent); !ok {
		return false
	}
	key := event.GetComponent() + "|" + event.GetCategory() + "|" + event.GetMessage()
	// Add fails when the key is still live
	return eb.dedup.Add(key, struct{}{}, cache.DefaultExpiration) != nil
}

func (eb *EventBus) start() {
	if eb.running.Swap(true) {
		return
	}

	eb.logger.Debug("starting event bus workers", logger.Int("count", eb.workers))
	for i := range eb.workers {
		eb.wg.Add(1)
		go eb.worker(i)
	}
}

func (eb *EventBus) worker(id int) {
	defer eb.wg.Done()

	log := eb.logger.With(logger.Int("worker_id", id))

	for {
		select {
		case <-eb.ctx.Done():
			eb.drain(log)
			return
		case event := <-eb.eventChan:
			eb.processEvent(event, log)
		}
	}
}

// drain processes whatever is still queued at shutdown.
func (eb *EventBus) drain(log logger.Logger) {
	for {
		select {
		case event := <-eb.eventChan:
			eb.processEvent(event, log)
		default:
			return
		}
	}
}

func (eb *EventBus) processEvent(event Event, log logger.Logger) {
	eb.mu.Lock()
	consumers := make([]EventConsumer, len(eb.consumers))
	copy(consumers, eb.consumers)
	eb.mu.Unlock()

	for _, consumer := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
					log.Error("consumer panicked",
						logger.String("consumer", consumer.Name()),
						logger.Any("panic", r),
						logger.String("component", event.GetComponent()))
				}
			}()

			if err := consumer.ProcessEvent(event); err != nil {
				atomic.AddUint64(&eb.stats.ConsumerErrors, 1)
				log.Warn("consumer error",
					logger.String("consumer", consumer.Name()),
					logger.String("category", event.GetCategory()),
					logger.Error(err))
				return
			}
			atomic.AddUint64(&eb.stats.EventsProcessed, 1)
		}()
	}
}

// Shutdown stops accepting events, lets workers drain the queue and waits
// up to timeout for them to finish.
func (eb *EventBus) Shutdown(timeout time.Duration) error {
	if eb == nil || !eb.initialized.Load() {
		return nil
	}

	wasRunning := eb.running.Swap(false)
	eb.cancel()

	if !wasRunning {
		return nil
	}

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.logger.Info("event bus shutdown complete")
		return nil
	case <-time.After(timeout):
		eb.logger.Warn("event bus shutdown timeout exceeded", logger.Duration("timeout", timeout))
		return fmt.Errorf("event bus shutdown timeout exceeded")
	}
}

// GetStats returns current event bus statistics
func (eb *EventBus) GetStats() EventBusStats {
	if eb == nil {
		return EventBusStats{}
	}

	return EventBusStats{
		EventsReceived:   atomic.LoadUint64(&eb.stats.EventsReceived),
		EventsSuppressed: atomic.LoadUint64(&eb.stats.EventsSuppressed),
		EventsProcessed:  atomic.LoadUint64(&eb.stats.EventsProcessed),
		EventsDropped:    atomic.LoadUint64(&eb.stats.EventsDropped),
		ConsumerErrors:   atomic.LoadUint64(&eb.stats.ConsumerErrors),
	}
}
