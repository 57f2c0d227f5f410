package mqtt

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/events"
)

// WarningMessage is the JSON published on the warning topic.
type WarningMessage struct {
	ID        uint      `json:"id,omitempty"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWarningMessage converts a bus warning into its wire form.
func NewWarningMessage(w *events.WarningEvent) WarningMessage {
	return WarningMessage{
		ID:        w.RecordID,
		Type:      w.WarningType,
		Severity:  w.Severity,
		Title:     w.Title,
		Message:   w.Message,
		Location:  w.Location,
		Subject:   w.Subject,
		Value:     w.Value,
		Threshold: w.Threshold,
		Timestamp: w.Timestamp,
	}
}

// StateMessage is the JSON published on the state topic after each
// collection. Missing measurements are omitted.
type StateMessage struct {
	Timestamp      time.Time `json:"timestamp"`
	Location       string    `json:"location,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Humidity       *float64  `json:"humidity,omitempty"`
	SoilMoisture   *float64  `json:"soil_moisture,omitempty"`
	LightIntensity *float64  `json:"light_intensity,omitempty"`
	WindSpeed      *float64  `json:"wind_speed,omitempty"`
	Rainfall       *float64  `json:"rainfall,omitempty"`
	AirPressure    *float64  `json:"air_pressure,omitempty"`
}

// NewStateMessage converts a stored reading into its wire form.
func NewStateMessage(d *datastore.EnvironmentData) StateMessage {
	return StateMessage{
		Timestamp:      d.Timestamp,
		Location:       d.Location,
		Temperature:    d.Temperature,
		Humidity:       d.Humidity,
		SoilMoisture:   d.SoilMoisture,
		LightIntensity: d.LightIntensity,
		WindSpeed:      d.WindSpeed,
		Rainfall:       d.Rainfall,
		AirPressure:    d.AirPressure,
	}
}
