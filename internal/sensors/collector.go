package sensors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/suncalc"
)

// Sensor states reported by Status and TestAll.
const (
	StateOnline  = "online"
	StateError   = "error"
	StateUnknown = "unknown"
)

// collectorDevice is the DeviceStatus row describing the collector itself.
const collectorDevice = "data_collector"

const (
	generateBatchHours = 24
	defaultInterval    = 5 * time.Minute
)

// Store is the persistence the collector needs.
type Store interface {
	SaveEnvironmentData(data *datastore.EnvironmentData) error
	SaveEnvironmentBatch(data []datastore.EnvironmentData) error
	SaveDeviceStatus(status *datastore.DeviceStatus) error
}

// WeatherOverlay fills measurements the local sensors do not provide.
type WeatherOverlay interface {
	Overlay(ctx context.Context, reading *datastore.EnvironmentData) error
}

// ReadingPublisher forwards saved readings, e.g. to an MQTT state topic.
type ReadingPublisher interface {
	PublishReading(ctx context.Context, reading *datastore.EnvironmentData) error
}

// Recorder receives collection metrics.
type Recorder interface {
	RecordSensorRead(sensor, status string)
	RecordCollection(status string, duration time.Duration)
	SetSensorOnline(sensor string, online bool)
}

// SensorState is the last known state of one sensor.
type SensorState struct {
	Name      string    `json:"name"`
	Pin       int       `json:"pin,omitempty"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	LastValue *float64  `json:"last_value,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
}

// Collector reads all sensors into one reading and stores it.
type Collector struct {
	sensors   []Sensor
	store     Store
	weather   WeatherOverlay
	publisher ReadingPublisher
	metrics   Recorder
	location  string
	sensorID  string
	interval  time.Duration
	pins      map[string]conf.SensorPin
	now       func() time.Time

	mu     sync.RWMutex
	states map[string]*SensorState

	running atomic.Bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithSensors replaces the sensor set built from settings.
func WithSensors(sensors ...Sensor) Option {
	return func(c *Collector) { c.sensors = sensors }
}

// WithWeather enables the weather overlay.
func WithWeather(w WeatherOverlay) Option {
	return func(c *Collector) { c.weather = w }
}

// WithPublisher forwards every saved reading.
func WithPublisher(p ReadingPublisher) Option {
	return func(c *Collector) { c.publisher = p }
}

// WithRecorder attaches collection metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Collector) { c.metrics = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// NewCollector builds a collector from settings. Simulated sensors are used
// when sensors.simulate is set; otherwise readings are expected over MQTT and
// only sensors passed with WithSensors are read.
func NewCollector(store Store, settings *conf.Settings, opts ...Option) *Collector {
	c := &Collector{
		store:    store,
		location: settings.Main.Location,
		sensorID: settings.Sensors.SensorID,
		interval: time.Duration(settings.Sensors.Interval) * time.Second,
		pins:     settings.Sensors.Pins,
		now:      time.Now,
		states:   make(map[string]*SensorState),
	}
	if c.interval <= 0 {
		c.interval = defaultInterval
	}
	if settings.Sensors.Simulate {
		var daylight DaylightFunc
		if settings.Main.Latitude != 0 || settings.Main.Longitude != 0 {
			daylight = suncalc.NewSunCalc(settings.Main.Latitude, settings.Main.Longitude, settings.Location()).IsDaylight
		}
		c.sensors = NewSimulatedSensors(nil, daylight)
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, s := range c.sensors {
		st := &SensorState{Name: s.Name(), Status: StateUnknown, Type: "simulated"}
		if pin, ok := c.pins[pinKey(s.Name())]; ok {
			st.Pin = pin.Pin
			st.Type = pin.Type
		}
		c.states[s.Name()] = st
	}
	return c
}

// Interval returns the scheduled collection interval.
func (c *Collector) Interval() time.Duration { return c.interval }

// read reads one sensor and updates its state.
func (c *Collector) read(ctx context.Context, s Sensor, t time.Time) (float64, error) {
	v, err := s.Read(ctx, t)

	c.mu.Lock()
	st := c.states[s.Name()]
	if err != nil {
		st.Status = StateError
		st.LastError = err.Error()
	} else {
		st.Status = StateOnline
		st.LastError = ""
		st.LastValue = &v
		st.LastSeen = t
	}
	c.mu.Unlock()

	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordSensorRead(s.Name(), status)
	}
	return v, err
}

// readAll reads every sensor at t. Failing sensors leave their field nil.
func (c *Collector) readAll(ctx context.Context, t time.Time) (*datastore.EnvironmentData, error) {
	if len(c.sensors) == 0 {
		return nil, errors.Newf("no local sensors configured").
			Component("sensors").
			Category(errors.CategoryState).
			Build()
	}

	reading := &datastore.EnvironmentData{Timestamp: t, Location: c.location, SensorID: c.sensorID}
	failed := 0
	for _, s := range c.sensors {
		v, err := c.read(ctx, s, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.New(ctx.Err()).
					Component("sensors").
					Category(errors.CategoryCancellation).
					Build()
			}
			failed++
			GetLogger().Warn("sensor read failed", logger.String("sensor", s.Name()), logger.Error(err))
			continue
		}
		assign(reading, s.Name(), v)
	}
	if failed == len(c.sensors) {
		return nil, errors.Newf("all %d sensors failed", failed).
			Component("sensors").
			Category(errors.CategorySensor).
			Build()
	}
	return reading, nil
}

// CollectAll reads every sensor into one reading, overlays weather data and
// saves it. Weather and publish failures are logged, not returned.
func (c *Collector) CollectAll(ctx context.Context) (_ *datastore.EnvironmentData, err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			c.metrics.RecordCollection(status, time.Since(start))
		}
	}()

	reading, err := c.readAll(ctx, c.now())
	if err != nil {
		return nil, err
	}

	if c.weather != nil {
		if werr := c.weather.Overlay(ctx, reading); werr != nil {
			GetLogger().Warn("weather overlay failed", logger.Error(werr))
		}
	}

	if err := c.store.SaveEnvironmentData(reading); err != nil {
		return nil, err
	}

	if c.publisher != nil {
		if perr := c.publisher.PublishReading(ctx, reading); perr != nil {
			GetLogger().Warn("publishing reading failed", logger.Error(perr))
		}
	}

	GetLogger().Debug("collected reading",
		logger.Int("id", int(reading.ID)),
		logger.String("location", reading.Location))
	return reading, nil
}

// Status returns a snapshot of every sensor's last known state, in sensor order.
func (c *Collector) Status() []SensorState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]SensorState, 0, len(c.sensors))
	for _, s := range c.sensors {
		st := *c.states[s.Name()]
		if st.LastValue != nil {
			v := *st.LastValue
			st.LastValue = &v
		}
		out = append(out, st)
	}
	return out
}

// TestAll reads every sensor once and persists a DeviceStatus row per sensor.
func (c *Collector) TestAll(ctx context.Context) ([]datastore.DeviceStatus, error) {
	now := c.now()
	rows := make([]datastore.DeviceStatus, 0, len(c.sensors))
	for _, s := range c.sensors {
		v, err := c.read(ctx, s, now)

		c.mu.RLock()
		st := *c.states[s.Name()]
		c.mu.RUnlock()

		row := datastore.DeviceStatus{
			SensorName: s.Name(),
			Pin:        st.Pin,
			Type:       st.Type,
			Status:     StateOnline,
			LastSeen:   now,
		}
		if err != nil {
			row.Status = StateError
			row.LastError = err.Error()
		} else {
			row.LastReading = &v
		}
		if c.metrics != nil {
			c.metrics.SetSensorOnline(s.Name(), err == nil)
		}
		if err := c.store.SaveDeviceStatus(&row); err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Run collects immediately and then every interval until ctx is cancelled.
// The collector's own DeviceStatus row tracks whether rounds succeed.
func (c *Collector) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.Newf("collector already running").
			Component("sensors").
			Category(errors.CategoryState).
			Build()
	}
	defer c.running.Store(false)

	GetLogger().Info("starting data collection", logger.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collectRound(ctx)
		select {
		case <-ctx.Done():
			GetLogger().Info("stopping data collection")
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Collector) collectRound(ctx context.Context) {
	row := datastore.DeviceStatus{SensorName: collectorDevice, Type: "service", Status: "running", LastSeen: c.now()}
	if _, err := c.CollectAll(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		GetLogger().Error("collection failed", logger.Error(err))
		row.Status = StateError
		row.LastError = err.Error()
	}
	if err := c.store.SaveDeviceStatus(&row); err != nil {
		GetLogger().Warn("saving collector status failed", logger.Error(err))
	}
}

// GenerateTestData writes hourly simulated readings for the past days,
// ending at the current hour. progress, when set, is called after each batch.
func (c *Collector) GenerateTestData(ctx context.Context, days int, progress func(done, total int)) (int, error) {
	if days <= 0 {
		return 0, errors.ValidationError("days must be positive")
	}
	total := days * 24
	start := c.now().Truncate(time.Hour).Add(-time.Duration(total-1) * time.Hour)

	batch := make([]datastore.EnvironmentData, 0, generateBatchHours)
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.store.SaveEnvironmentBatch(batch); err != nil {
			return err
		}
		written += len(batch)
		batch = batch[:0]
		if progress != nil {
			progress(written, total)
		}
		return nil
	}

	for i := range total {
		reading, err := c.readAll(ctx, start.Add(time.Duration(i)*time.Hour))
		if err != nil {
			return written, err
		}
		batch = append(batch, *reading)
		if len(batch) == generateBatchHours {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	GetLogger().Info("generated test data", logger.Int("days", days), logger.Int("readings", written))
	return written, nil
}
