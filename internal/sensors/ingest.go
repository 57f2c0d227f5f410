package sensors

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/mqtt"
)

// Ingest outcomes passed to IngestRecorder.
const (
	IngestAccepted = "success"
	IngestInvalid  = "invalid"
	IngestDropped  = "dropped"
)

// IngestRecorder counts ingestion outcomes.
type IngestRecorder interface {
	RecordIngest(status string)
}

// ReadingSaver persists ingested readings.
type ReadingSaver interface {
	SaveEnvironmentData(data *datastore.EnvironmentData) error
}

// ReadingPayload is the JSON body of an MQTT reading.
type ReadingPayload struct {
	Timestamp      *time.Time `json:"timestamp"`
	Temperature    *float64   `json:"temperature"`
	Humidity       *float64   `json:"humidity"`
	SoilMoisture   *float64   `json:"soil_moisture"`
	LightIntensity *float64   `json:"light_intensity"`
	WindSpeed      *float64   `json:"wind_speed"`
	Rainfall       *float64   `json:"rainfall"`
	AirPressure    *float64   `json:"air_pressure"`
	Location       string     `json:"location"`
	SensorID       string     `json:"sensor_id"`
}

type bounds struct{ min, max float64 }

var payloadBounds = map[string]bounds{
	Temperature:    {-50, 70},
	Humidity:       {0, 100},
	SoilMoisture:   {0, 100},
	LightIntensity: {0, 200000},
	WindSpeed:      {0, 100},
	Rainfall:       {0, 500},
	AirPressure:    {800, 1100},
}

func (p *ReadingPayload) fields() map[string]*float64 {
	return map[string]*float64{
		Temperature:    p.Temperature,
		Humidity:       p.Humidity,
		SoilMoisture:   p.SoilMoisture,
		LightIntensity: p.LightIntensity,
		WindSpeed:      p.WindSpeed,
		Rainfall:       p.Rainfall,
		AirPressure:    p.AirPressure,
	}
}

// Validate checks ranges and requires at least one measurement.
func (p *ReadingPayload) Validate() error {
	present := 0
	for name, v := range p.fields() {
		if v == nil {
			continue
		}
		present++
		b := payloadBounds[name]
		if *v < b.min || *v > b.max {
			return errors.Newf("%s %.2f outside [%g, %g]", name, *v, b.min, b.max).
				Component("sensors").
				Category(errors.CategoryValidation).
				Context("field", name).
				Build()
		}
	}
	if present == 0 {
		return errors.ValidationError("reading has no measurements")
	}
	return nil
}

// IngestStats are the cumulative ingestion counters.
type IngestStats struct {
	Accepted uint64 `json:"accepted"`
	Invalid  uint64 `json:"invalid"`
	Dropped  uint64 `json:"dropped"`
}

// Ingestor saves readings published by remote sensor nodes.
type Ingestor struct {
	store    ReadingSaver
	topic    string
	location string
	sensorID string
	limiter  *rate.Limiter
	metrics  IngestRecorder
	now      func() time.Time

	accepted atomic.Uint64
	invalid  atomic.Uint64
	dropped  atomic.Uint64
}

// NewIngestor builds an ingestor for sensors.mqtt. A rate limit of zero
// disables limiting.
func NewIngestor(store ReadingSaver, settings *conf.Settings, recorder IngestRecorder) *Ingestor {
	limit := rate.Inf
	burst := 0
	if r := settings.Sensors.MQTT.RateLimit; r > 0 {
		limit = rate.Limit(r)
		burst = max(1, int(r))
	}
	return &Ingestor{
		store:    store,
		topic:    settings.Sensors.MQTT.Topic,
		location: settings.Main.Location,
		sensorID: settings.Sensors.SensorID,
		limiter:  rate.NewLimiter(limit, burst),
		metrics:  recorder,
		now:      time.Now,
	}
}

// Start subscribes to the reading topic.
func (i *Ingestor) Start(client mqtt.Client) error {
	if i.topic == "" {
		return errors.Newf("sensors.mqtt.topic is empty").
			Component("sensors").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := client.Subscribe(i.topic, i.Handle); err != nil {
		return err
	}
	GetLogger().Info("ingesting readings from MQTT", logger.String("topic", i.topic))
	return nil
}

// Handle decodes, validates and saves one payload. It never blocks on the
// limiter; excess messages are dropped.
func (i *Ingestor) Handle(topic string, payload []byte) {
	if !i.limiter.Allow() {
		i.count(&i.dropped, IngestDropped)
		return
	}

	reading, err := i.decode(payload)
	if err != nil {
		i.count(&i.invalid, IngestInvalid)
		GetLogger().Debug("rejected reading",
			logger.String("topic", topic),
			logger.Int("size", len(payload)),
			logger.Error(err))
		return
	}

	if err := i.store.SaveEnvironmentData(reading); err != nil {
		i.count(&i.dropped, IngestDropped)
		GetLogger().Warn("saving ingested reading failed", logger.Error(err))
		return
	}
	i.count(&i.accepted, IngestAccepted)
}

func (i *Ingestor) decode(payload []byte) (*datastore.EnvironmentData, error) {
	var p ReadingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.New(err).
			Component("sensors").
			Category(errors.CategoryValidation).
			Context("operation", "decode_reading").
			Build()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := &datastore.EnvironmentData{
		Timestamp:      i.now(),
		Temperature:    p.Temperature,
		Humidity:       p.Humidity,
		SoilMoisture:   p.SoilMoisture,
		LightIntensity: p.LightIntensity,
		WindSpeed:      p.WindSpeed,
		Rainfall:       p.Rainfall,
		AirPressure:    p.AirPressure,
		Location:       p.Location,
		SensorID:       p.SensorID,
	}
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		d.Timestamp = *p.Timestamp
	}
	if d.Location == "" {
		d.Location = i.location
	}
	if d.SensorID == "" {
		d.SensorID = i.sensorID
	}
	return d, nil
}

func (i *Ingestor) count(c *atomic.Uint64, status string) {
	c.Add(1)
	if i.metrics != nil {
		i.metrics.RecordIngest(status)
	}
}

// Stats returns the ingestion counters.
func (i *Ingestor) Stats() IngestStats {
	return IngestStats{
		Accepted: i.accepted.Load(),
		Invalid:  i.invalid.Load(),
		Dropped:  i.dropped.Load(),
	}
}
