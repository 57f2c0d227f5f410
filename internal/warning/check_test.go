package warning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/events"
)

func ptr[T any](v T) *T { return &v }

var thresholds = conf.WarningThresholds{
	PestRisk:        0.7,
	DiseaseRisk:     0.6,
	TemperatureHigh: 35,
	TemperatureLow:  5,
	HumidityHigh:    90,
	HumidityLow:     30,
	SoilMoistureLow: 20,
}

func TestCheckEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reading datastore.EnvironmentData
		want    map[string]string // type -> severity
	}{
		{
			name:    "hot humid and dry soil",
			reading: datastore.EnvironmentData{Temperature: ptr(36.5), Humidity: ptr(95.0), SoilMoisture: ptr(12.0)},
			want: map[string]string{
				TypeTemperatureHigh: events.SeverityHigh,
				TypeHumidityHigh:    events.SeverityMedium,
				TypeSoilMoistureLow: events.SeverityHigh,
			},
		},
		{
			name:    "cold and dry air",
			reading: datastore.EnvironmentData{Temperature: ptr(2.0), Humidity: ptr(25.0)},
			want: map[string]string{
				TypeTemperatureLow: events.SeverityMedium,
				TypeHumidityLow:    events.SeverityMedium,
			},
		},
		{
			name:    "thresholds are exclusive",
			reading: datastore.EnvironmentData{Temperature: ptr(35.0), Humidity: ptr(30.0), SoilMoisture: ptr(20.0)},
			want:    map[string]string{},
		},
		{
			name:    "missing measurements are skipped",
			reading: datastore.EnvironmentData{},
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := map[string]string{}
			for _, w := range CheckEnvironment(&tt.reading, thresholds) {
				got[w.Type] = w.Severity
				assert.NotEmpty(t, w.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Nil(t, CheckEnvironment(nil, thresholds))
}

func TestCheckEnvironmentCarriesValues(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)
	ws := CheckEnvironment(&datastore.EnvironmentData{
		Timestamp:   ts,
		Location:    "greenhouse-2",
		Temperature: ptr(38.25),
	}, thresholds)
	require.Len(t, ws, 1)

	w := ws[0]
	assert.InDelta(t, 38.25, w.Value, 1e-9)
	assert.InDelta(t, 35.0, w.Threshold, 1e-9)
	assert.Equal(t, "greenhouse-2", w.Location)
	assert.Equal(t, ts, w.Timestamp)
	assert.Contains(t, w.Message, "above the 35.0°C threshold")
}

func TestCheckPestDiseaseRisk(t *testing.T) {
	t.Parallel()

	ws := CheckPestDiseaseRisk(
		map[string]float64{"spider_mites": 0.75, "aphids": 0.85, "scale_insects": 0.7},
		map[string]float64{"powdery_mildew": 0.65, "bacterial_spot": 0.2},
		thresholds,
	)
	require.Len(t, ws, 3)

	assert.Equal(t, TypePestRisk, ws[0].Type)
	assert.Equal(t, "aphids", ws[0].Subject)
	assert.Equal(t, events.SeverityHigh, ws[0].Severity)

	assert.Equal(t, "spider_mites", ws[1].Subject)
	assert.Equal(t, events.SeverityMedium, ws[1].Severity)

	assert.Equal(t, TypeDiseaseRisk, ws[2].Type)
	assert.Equal(t, "powdery_mildew", ws[2].Subject)
	assert.Equal(t, events.SeverityMedium, ws[2].Severity)
	assert.InDelta(t, 0.6, ws[2].Threshold, 1e-9)

	assert.Empty(t, CheckPestDiseaseRisk(nil, nil, thresholds))
}

func TestComposeMessage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 1, 14, 30, 0, 0, time.UTC)
	title, body := ComposeMessage(Warning{
		Type:     TypeTemperatureHigh,
		Severity: events.SeverityHigh,
		Message:  "High temperature: 36.5°C is above the 35.0°C threshold",
		Location: "greenhouse",
	}, now)

	assert.Equal(t, "[HIGH] Temperature High warning", title)
	assert.Contains(t, body, "Time: 2024-07-01 14:30:00")
	assert.Contains(t, body, "Location: greenhouse")
	assert.Contains(t, body, "Detail: High temperature")
	assert.Contains(t, body, "Suggested measures:")
	assert.Contains(t, body, "- Put up shade netting")

	title, body = ComposeMessage(Warning{Type: TypeDiseaseRisk, Severity: events.SeverityMedium}, now)
	assert.Equal(t, "[MEDIUM] Disease Risk warning", title)
	assert.Contains(t, body, "Patrol the field")
	assert.NotContains(t, body, "Location:")
}

func TestSuggestedMeasuresReturnsCopy(t *testing.T) {
	t.Parallel()

	m := SuggestedMeasures(TypeSoilMoistureLow)
	require.Len(t, m, 3)
	m[0] = "changed"
	assert.Equal(t, "Irrigate now", SuggestedMeasures(TypeSoilMoistureLow)[0])
	assert.Empty(t, SuggestedMeasures("unknown"))
}
