// Home Assistant MQTT auto-discovery for the farm sensors.
// See: https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

const deviceIDPrefix = "farmwatch"

// DiscoverySensor describes one state field exposed to Home Assistant.
type DiscoverySensor struct {
	Key         string // JSON field in StateMessage
	Name        string
	Unit        string
	DeviceClass string
	Icon        string
}

// Sensors lists the state fields announced through discovery.
var Sensors = []DiscoverySensor{
	{Key: "temperature", Name: "Temperature", Unit: "°C", DeviceClass: "temperature"},
	{Key: "humidity", Name: "Humidity", Unit: "%", DeviceClass: "humidity"},
	{Key: "soil_moisture", Name: "Soil Moisture", Unit: "%", DeviceClass: "moisture"},
	{Key: "light_intensity", Name: "Light", Unit: "lx", DeviceClass: "illuminance"},
	{Key: "wind_speed", Name: "Wind Speed", Unit: "m/s", DeviceClass: "wind_speed"},
	{Key: "rainfall", Name: "Rainfall", Unit: "mm", DeviceClass: "precipitation"},
	{Key: "air_pressure", Name: "Air Pressure", Unit: "hPa", DeviceClass: "atmospheric_pressure"},
}

// idSanitizer replaces invalid characters in IDs with underscores.
// Home Assistant requires IDs to contain only [a-zA-Z0-9_-].
var idSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeID ensures the ID contains only valid characters for MQTT topics and HA entity IDs.
func SanitizeID(id string) string {
	sanitized := idSanitizer.ReplaceAllString(id, "_")
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "unknown"
	}
	return strings.ToLower(sanitized)
}

// DiscoveryPayload represents a Home Assistant MQTT discovery message.
type DiscoveryPayload struct {
	Name              string           `json:"name"`
	UniqueID          string           `json:"unique_id"`
	StateTopic        string           `json:"state_topic"`
	ValueTemplate     string           `json:"value_template,omitempty"`
	UnitOfMeasurement string           `json:"unit_of_measurement,omitempty"`
	DeviceClass       string           `json:"device_class,omitempty"`
	StateClass        string           `json:"state_class,omitempty"`
	Icon              string           `json:"icon,omitempty"`
	Device            DiscoveryDevice  `json:"device"`
	Origin            *DiscoveryOrigin `json:"origin,omitempty"`
}

// DiscoveryDevice represents the device information in a discovery payload.
type DiscoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// DiscoveryOrigin provides information about the software creating the discovery message.
type DiscoveryOrigin struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw_version,omitempty"`
	SupportURL string `json:"support_url,omitempty"`
}

// DiscoveryConfig holds configuration for generating discovery payloads.
type DiscoveryConfig struct {
	DiscoveryPrefix string // usually "homeassistant"
	StateTopic      string // topic carrying StateMessage
	WarningTopic    string // topic carrying WarningMessage
	DeviceName      string // e.g. main.name
	NodeID          string
	Version         string
}

// DiscoveryPublisher publishes retained discovery messages.
type DiscoveryPublisher struct {
	client Client
	config DiscoveryConfig
}

// NewDiscoveryPublisher creates a new discovery publisher.
func NewDiscoveryPublisher(client Client, config *DiscoveryConfig) *DiscoveryPublisher {
	return &DiscoveryPublisher{client: client, config: *config}
}

func (p *DiscoveryPublisher) device(nodeID string) DiscoveryDevice {
	return DiscoveryDevice{
		Identifiers:  []string{fmt.Sprintf("%s_%s", deviceIDPrefix, nodeID)},
		Name:         p.config.DeviceName,
		Manufacturer: "FarmWatch",
		Model:        "Environment Station",
		SWVersion:    p.config.Version,
	}
}

// PublishDiscovery announces every sensor plus the last warning entity.
func (p *DiscoveryPublisher) PublishDiscovery(ctx context.Context) error {
	nodeID := SanitizeID(p.config.NodeID)
	device := p.device(nodeID)

	for _, s := range Sensors {
		payload := &DiscoveryPayload{
			Name:              s.Name,
			UniqueID:          fmt.Sprintf("%s_%s_%s", deviceIDPrefix, nodeID, s.Key),
			StateTopic:        p.config.StateTopic,
			ValueTemplate:     fmt.Sprintf("{{ value_json.%s if value_json.%s is defined else this.state }}", s.Key, s.Key),
			UnitOfMeasurement: s.Unit,
			DeviceClass:       s.DeviceClass,
			StateClass:        "measurement",
			Icon:              s.Icon,
			Device:            device,
		}
		if err := p.publishPayload(ctx, p.sensorTopic(nodeID, s.Key), payload); err != nil {
			return err
		}
	}

	return p.publishPayload(ctx, p.sensorTopic(nodeID, "last_warning"), &DiscoveryPayload{
		Name:          "Last Warning",
		UniqueID:      fmt.Sprintf("%s_%s_last_warning", deviceIDPrefix, nodeID),
		StateTopic:    p.config.WarningTopic,
		ValueTemplate: "{{ value_json.title }}",
		Icon:          "mdi:alert",
		Device:        device,
	})
}

// RemoveDiscovery publishes empty retained payloads for every entity.
func (p *DiscoveryPublisher) RemoveDiscovery(ctx context.Context) error {
	nodeID := SanitizeID(p.config.NodeID)
	keys := make([]string, 0, len(Sensors)+1)
	for _, s := range Sensors {
		keys = append(keys, s.Key)
	}
	keys = append(keys, "last_warning")

	var errs []error
	for _, key := range keys {
		topic := p.sensorTopic(nodeID, key)
		if err := p.client.PublishWithRetain(ctx, topic, nil, true); err != nil {
			GetLogger().Warn("failed to remove sensor discovery", logger.String("topic", topic), logger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *DiscoveryPublisher) publishPayload(ctx context.Context, topic string, payload *DiscoveryPayload) error {
	if payload.Origin == nil {
		payload.Origin = &DiscoveryOrigin{
			Name:       "FarmWatch",
			SWVersion:  p.config.Version,
			SupportURL: "https://github.com/farmwatch/farmwatch",
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery payload: %w", err)
	}
	GetLogger().Debug("publishing discovery message",
		logger.String("topic", topic),
		logger.Int("payload_size", len(data)))
	return p.client.PublishWithRetain(ctx, topic, data, true)
}

// sensorTopic constructs the MQTT discovery topic for a specific sensor.
func (p *DiscoveryPublisher) sensorTopic(nodeID, key string) string {
	return fmt.Sprintf("%s/sensor/%s/%s_%s/config", p.config.DiscoveryPrefix, nodeID, nodeID, key)
}
