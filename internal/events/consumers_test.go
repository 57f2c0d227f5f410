package events

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

type countingRecorder struct {
	warnings map[string]int
	errors   map[string]int
}

func (r *countingRecorder) RecordWarning(warningType, severity string) {
	r.warnings[warningType+"/"+severity]++
}

func (r *countingRecorder) RecordError(component, category string) {
	r.errors[component+"/"+category]++
}

type captureReporter struct {
	reported []ErrorEvent
}

func (r *captureReporter) Report(event ErrorEvent) {
	r.reported = append(r.reported, event)
	event.MarkReported()
}

func TestLogConsumer(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	c := NewLogConsumer(logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC))

	w := mustWarning(t, "temperature_high")
	w.Subject = "aphids"
	require.NoError(t, c.ProcessEvent(w))
	require.NoError(t, c.ProcessEvent(errors.Newf("mqtt password=hunter22 rejected").Component("mqtt").Build()))

	out := buf.String()
	assert.Contains(t, out, `"warning_type":"temperature_high"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"subject":"aphids"`)
	assert.Contains(t, out, `"component":"mqtt"`)
	assert.NotContains(t, out, "hunter22")
}

func TestMetricsConsumer(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{warnings: map[string]int{}, errors: map[string]int{}}
	c := NewMetricsConsumer(rec)

	require.NoError(t, c.ProcessEvent(mustWarning(t, "humidity_high")))
	require.NoError(t, c.ProcessEvent(mustWarning(t, "humidity_high")))
	require.NoError(t, c.ProcessEvent(errors.Newf("x").Component("datastore").Category(errors.CategoryDatabase).Build()))

	assert.Equal(t, 2, rec.warnings["humidity_high/high"])
	assert.Equal(t, 1, rec.errors["datastore/database"])
	require.NoError(t, NewMetricsConsumer(nil).ProcessEvent(mustWarning(t, "x")))
}

func TestTelemetryConsumerReportsOnce(t *testing.T) {
	t.Parallel()

	rep := &captureReporter{}
	c := NewTelemetryConsumer(rep)

	ee := errors.Newf("disk full").Component("datastore").Build()
	require.NoError(t, c.ProcessEvent(ee))
	require.NoError(t, c.ProcessEvent(ee))
	require.NoError(t, c.ProcessEvent(mustWarning(t, "temperature_high")))

	assert.Len(t, rep.reported, 1)
}
