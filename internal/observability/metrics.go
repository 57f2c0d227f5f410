// Package observability exposes FarmWatch's Prometheus metrics.
// Sentry error reporting lives in the errors package.
package observability

import (
	stdlog "log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	MQTT       *metrics.MQTTMetrics
	Datastore  *metrics.DatastoreMetrics
	Sensors    *metrics.SensorMetrics
	Preprocess *metrics.PreprocessMetrics
	Warnings   *metrics.WarningMetrics
	Weather    *metrics.WeatherMetrics
}

// NewMetrics creates a private registry with every collector registered.
// Process and Go runtime collectors are included.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, wrap(err, "go")
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, wrap(err, "process")
	}

	m := &Metrics{registry: registry}
	var err error
	if m.MQTT, err = metrics.NewMQTTMetrics(registry); err != nil {
		return nil, wrap(err, "mqtt")
	}
	if m.Datastore, err = metrics.NewDatastoreMetrics(registry); err != nil {
		return nil, wrap(err, "datastore")
	}
	if m.Sensors, err = metrics.NewSensorMetrics(registry); err != nil {
		return nil, wrap(err, "sensors")
	}
	if m.Preprocess, err = metrics.NewPreprocessMetrics(registry); err != nil {
		return nil, wrap(err, "preprocess")
	}
	if m.Warnings, err = metrics.NewWarningMetrics(registry); err != nil {
		return nil, wrap(err, "warnings")
	}
	if m.Weather, err = metrics.NewWeatherMetrics(registry); err != nil {
		return nil, wrap(err, "weather")
	}
	return m, nil
}

func wrap(err error, collector string) error {
	return errors.New(err).
		Component("observability").
		Category(errors.CategorySystem).
		Context("collector", collector).
		Build()
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(os.Stderr, "metrics handler: ", stdlog.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", m.Handler())
}
