// Package analysis wires the store, metrics, sensors, warnings and
// preprocessing into the long-running service and the one-shot commands.
package analysis

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/observability"
	"github.com/farmwatch/farmwatch/internal/preprocess"
	"github.com/farmwatch/farmwatch/internal/sensors"
	"github.com/farmwatch/farmwatch/internal/suncalc"
	"github.com/farmwatch/farmwatch/internal/warning"
	"github.com/farmwatch/farmwatch/internal/weather"
)

// Runtime holds the shared services of one process.
type Runtime struct {
	Settings *conf.Settings
	Info     *buildinfo.Context
	Store    datastore.Interface
	Metrics  *observability.Metrics
}

// Open connects the configured store and creates the metric registry.
// Callers must Close the runtime.
func Open(settings *conf.Settings, info *buildinfo.Context) (*Runtime, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	store, err := datastore.New(settings)
	if err != nil {
		return nil, err
	}
	if r, ok := store.(interface {
		SetOperationRecorder(datastore.OperationRecorder)
	}); ok {
		r.SetOperationRecorder(m.Datastore)
	}
	if err := store.Open(); err != nil {
		return nil, err
	}

	return &Runtime{Settings: settings, Info: info, Store: store, Metrics: m}, nil
}

// Close releases the store.
func (r *Runtime) Close() {
	if err := r.Store.Close(); err != nil {
		GetLogger().Error("failed to close database", logger.Error(err))
	}
}

// Daylight returns a sun based daylight check for the configured site, or
// nil when no coordinates are set.
func (r *Runtime) Daylight() func(time.Time) bool {
	if r.Settings.Main.Latitude == 0 && r.Settings.Main.Longitude == 0 {
		return nil
	}
	return suncalc.NewSunCalc(r.Settings.Main.Latitude, r.Settings.Main.Longitude, r.Settings.Location()).IsDaylight
}

// Preprocessor returns a pipeline reporting to the runtime metrics.
func (r *Runtime) Preprocessor() *preprocess.Preprocessor {
	opts := []preprocess.Option{preprocess.WithRecorder(r.Metrics.Preprocess)}
	if fn := r.Daylight(); fn != nil {
		opts = append(opts, preprocess.WithDaylight(fn))
	}
	return preprocess.New(r.Store, opts...)
}

// Warnings returns a warning service. pub may be nil.
func (r *Runtime) Warnings(pub warning.Publisher) *warning.Service {
	var opts []warning.Option
	if pub != nil {
		opts = append(opts, warning.WithPublisher(pub))
	}
	return warning.NewService(r.Store, r.Settings, opts...)
}

// Collector returns a collector with weather overlay when enabled. extra
// options are applied last.
func (r *Runtime) Collector(extra ...sensors.Option) (*sensors.Collector, error) {
	opts := []sensors.Option{sensors.WithRecorder(r.Metrics.Sensors)}

	ws, err := weather.NewService(r.Settings, weather.WithRecorder(r.Metrics.Weather))
	if err != nil {
		return nil, err
	}
	if ws != nil {
		GetLogger().Info("weather overlay enabled", logger.String("provider", ws.Provider()))
		opts = append(opts, sensors.WithWeather(ws))
	}

	return sensors.NewCollector(r.Store, r.Settings, append(opts, extra...)...), nil
}

// RequireSimulation fails when no local sensors are available.
func (r *Runtime) RequireSimulation() error {
	if r.Settings.Sensors.Simulate {
		return nil
	}
	return errors.Newf("local collection requires sensors.simulate; field nodes report over MQTT").
		Component("analysis").
		Category(errors.CategoryConfiguration).
		Build()
}
