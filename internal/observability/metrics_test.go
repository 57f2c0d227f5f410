package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/observability/metrics"
)

func findFamily(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewMetricsConcurrency(t *testing.T) {
	t.Parallel()

	const numGoroutines = 20
	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.MQTT)
			assert.NotNil(t, m.Datastore)
			assert.NotNil(t, m.Sensors)
			assert.NotNil(t, m.Preprocess)
			assert.NotNil(t, m.Warnings)
			assert.NotNil(t, m.Weather)
		})
	}
	wg.Wait()
}

func TestWarningCounters(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Warnings.RecordWarning("temperature_high", "high")
	m.Warnings.RecordWarning("temperature_high", "high")
	m.Warnings.RecordWarning("pest_risk", "medium")
	m.Warnings.RecordError("datastore", "database")

	f := findFamily(t, m, "farmwatch_warnings_raised_total")
	counts := map[string]float64{}
	for _, metric := range f.GetMetric() {
		counts[labelValue(metric, "type")+"/"+labelValue(metric, "severity")] = metric.GetCounter().GetValue()
	}
	assert.InDelta(t, 2.0, counts["temperature_high/high"], 1e-9)
	assert.InDelta(t, 1.0, counts["pest_risk/medium"], 1e-9)

	errs := findFamily(t, m, "farmwatch_errors_total")
	require.Len(t, errs.GetMetric(), 1)
	assert.Equal(t, "datastore", labelValue(errs.GetMetric()[0], "component"))
}

func TestDatastoreOperations(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Datastore.RecordOperation("save_environment", metrics.StatusSuccess, 3*time.Millisecond)
	m.Datastore.RecordOperation("save_environment", metrics.StatusError, time.Millisecond)

	ops := findFamily(t, m, "farmwatch_db_operations_total")
	assert.Len(t, ops.GetMetric(), 2)

	hist := findFamily(t, m, "farmwatch_db_operation_duration_seconds")
	require.Len(t, hist.GetMetric(), 1)
	assert.Equal(t, uint64(2), hist.GetMetric()[0].GetHistogram().GetSampleCount())

	lastErr := findFamily(t, m, "farmwatch_db_last_error_time_seconds")
	assert.Positive(t, lastErr.GetMetric()[0].GetGauge().GetValue())
}

func TestPreprocessRowsOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Preprocess.RecordPreprocessRun(metrics.StatusSuccess, 168, 20*time.Millisecond)
	m.Preprocess.RecordPreprocessRun(metrics.StatusError, 0, time.Millisecond)

	rows := findFamily(t, m, "farmwatch_preprocess_rows")
	assert.Equal(t, uint64(1), rows.GetMetric()[0].GetHistogram().GetSampleCount())
	runs := findFamily(t, m, "farmwatch_preprocess_runs_total")
	assert.Len(t, runs.GetMetric(), 2)
}

func TestSensorAndMQTTMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Sensors.RecordSensorRead("temperature", metrics.StatusSuccess)
	m.Sensors.RecordIngest(metrics.StatusInvalid)
	m.Sensors.SetSensorOnline("light", false)
	m.MQTT.UpdateConnectionStatus(true)
	m.MQTT.IncrementMessagesReceived("farmwatch/readings")

	online := findFamily(t, m, "farmwatch_sensor_online")
	assert.InDelta(t, 0.0, online.GetMetric()[0].GetGauge().GetValue(), 1e-9)
	status := findFamily(t, m, "farmwatch_mqtt_connection_status")
	assert.InDelta(t, 1.0, status.GetMetric()[0].GetGauge().GetValue(), 1e-9)
}

func TestHandlerServesExposition(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Weather.RecordWeatherFetch("openweather", metrics.StatusSuccess, 200*time.Millisecond)

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `farmwatch_weather_fetches_total{provider="openweather",status="success"} 1`)
}

func TestNewEndpointRequiresListenAddress(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	_, err = NewEndpoint(settings, m)
	require.Error(t, err)

	settings.Telemetry.Enabled = true
	_, err = NewEndpoint(settings, m)
	require.Error(t, err)

	settings.Telemetry.Listen = "127.0.0.1:0"
	e, err := NewEndpoint(settings, m)
	require.NoError(t, err)
	assert.Same(t, m, e.GetMetrics())
}
