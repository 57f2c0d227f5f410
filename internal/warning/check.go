// Package warning evaluates readings and risk predictions against the
// configured thresholds and records the resulting warnings.
package warning

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/events"
)

// Warning types.
const (
	TypeTemperatureHigh = "temperature_high"
	TypeTemperatureLow  = "temperature_low"
	TypeHumidityHigh    = "humidity_high"
	TypeHumidityLow     = "humidity_low"
	TypeSoilMoistureLow = "soil_moisture_low"
	TypePestRisk        = "pest_risk"
	TypeDiseaseRisk     = "disease_risk"
)

// highRisk is the risk above which a risk warning is high severity.
const highRisk = 0.8

// Warning is a threshold violation found by a check.
type Warning struct {
	RecordID  uint      `json:"id,omitempty"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	Subject   string    `json:"subject,omitempty"` // pest or disease type
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckEnvironment compares one reading with the thresholds. Missing
// measurements are skipped.
func CheckEnvironment(r *datastore.EnvironmentData, t conf.WarningThresholds) []Warning {
	if r == nil {
		return nil
	}
	var out []Warning
	add := func(typ, severity, format string, value, threshold float64) {
		out = append(out, Warning{
			Type:      typ,
			Severity:  severity,
			Message:   fmt.Sprintf(format, value, threshold),
			Location:  r.Location,
			Value:     value,
			Threshold: threshold,
			Timestamp: r.Timestamp,
		})
	}

	if v := r.Temperature; v != nil {
		switch {
		case *v > t.TemperatureHigh:
			add(TypeTemperatureHigh, events.SeverityHigh,
				"High temperature: %.1f°C is above the %.1f°C threshold", *v, t.TemperatureHigh)
		case *v < t.TemperatureLow:
			add(TypeTemperatureLow, events.SeverityMedium,
				"Low temperature: %.1f°C is below the %.1f°C threshold", *v, t.TemperatureLow)
		}
	}
	if v := r.Humidity; v != nil {
		switch {
		case *v > t.HumidityHigh:
			add(TypeHumidityHigh, events.SeverityMedium,
				"High humidity: %.1f%% is above the %.1f%% threshold", *v, t.HumidityHigh)
		case *v < t.HumidityLow:
			add(TypeHumidityLow, events.SeverityMedium,
				"Low humidity: %.1f%% is below the %.1f%% threshold", *v, t.HumidityLow)
		}
	}
	if v := r.SoilMoisture; v != nil && *v < t.SoilMoistureLow {
		add(TypeSoilMoistureLow, events.SeverityHigh,
			"Dry soil: soil moisture %.1f%% is below the %.1f%% threshold", *v, t.SoilMoistureLow)
	}
	return out
}

// CheckPestDiseaseRisk returns a warning for every pest or disease whose risk
// exceeds its threshold, in name order.
func CheckPestDiseaseRisk(pestRisks, diseaseRisks map[string]float64, t conf.WarningThresholds) []Warning {
	var out []Warning
	check := func(risks map[string]float64, typ string, threshold float64) {
		for _, name := range slices.Sorted(maps.Keys(risks)) {
			risk := risks[name]
			if risk <= threshold {
				continue
			}
			severity := events.SeverityMedium
			if risk > highRisk {
				severity = events.SeverityHigh
			}
			out = append(out, Warning{
				Type:      typ,
				Severity:  severity,
				Subject:   name,
				Message:   fmt.Sprintf("%s risk: index %.2f is above the %.2f threshold", name, risk, threshold),
				Value:     risk,
				Threshold: threshold,
			})
		}
	}
	check(pestRisks, TypePestRisk, t.PestRisk)
	check(diseaseRisks, TypeDiseaseRisk, t.DiseaseRisk)
	return out
}

var suggestedMeasures = map[string][]string{
	TypeTemperatureHigh: {
		"Irrigate more often to keep the soil moist",
		"Put up shade netting to cut direct sunlight",
		"Increase ventilation to bring the temperature down",
	},
	TypeTemperatureLow: {
		"Cover plants with insulating material",
		"Close the vents",
		"Use heating if necessary",
	},
	TypeHumidityHigh: {
		"Ventilate to lower the humidity",
		"Watch for fungal disease",
		"Reduce sprinkler irrigation",
	},
	TypeHumidityLow: {
		"Mist more often",
		"Adjust the irrigation method",
		"Watch the water status of the plants",
	},
	TypeSoilMoistureLow: {
		"Irrigate now",
		"Check the irrigation system",
		"Adjust the irrigation schedule",
	},
	TypePestRisk: {
		"Patrol the field more often",
		"Prepare control measures",
		"Monitor how the outbreak develops",
		"Consider preventive treatment",
	},
}

func init() {
	suggestedMeasures[TypeDiseaseRisk] = suggestedMeasures[TypePestRisk]
}

// SuggestedMeasures returns the recommended actions for a warning type.
func SuggestedMeasures(warningType string) []string {
	return slices.Clone(suggestedMeasures[warningType])
}

var titleCaser = cases.Title(language.English)

// Title returns the notification title, for example
// "[HIGH] Temperature High warning".
func Title(w Warning) string {
	name := titleCaser.String(strings.ReplaceAll(w.Type, "_", " "))
	return fmt.Sprintf("[%s] %s warning", strings.ToUpper(w.Severity), name)
}

// ComposeMessage renders the title and plain text body of a warning.
func ComposeMessage(w Warning, now time.Time) (title, body string) {
	title = Title(w)
	stamp := now.Format("2006-01-02 15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "Time: %s\n", stamp)
	fmt.Fprintf(&b, "Type: %s\n", w.Type)
	fmt.Fprintf(&b, "Severity: %s\n", w.Severity)
	if w.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", w.Location)
	}
	fmt.Fprintf(&b, "Detail: %s\n", w.Message)
	if measures := suggestedMeasures[w.Type]; len(measures) > 0 {
		b.WriteString("\nSuggested measures:\n")
		for _, m := range measures {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	fmt.Fprintf(&b, "\nFarmWatch monitoring\n%s", stamp)
	return title, b.String()
}
