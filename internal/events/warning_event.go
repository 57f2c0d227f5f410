package events

import (
	"fmt"
	"time"
)

// Warning severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// WarningEvent is raised when a reading or risk prediction crosses a threshold.
type WarningEvent struct {
	RecordID    uint      `json:"record_id,omitempty"`
	WarningType string    `json:"warning_type"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Location    string    `json:"location"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Subject     string    `json:"subject,omitempty"` // pest or disease type for risk warnings
	Timestamp   time.Time `json:"timestamp"`
}

// NewWarningEvent validates and builds a warning event.
func NewWarningEvent(warningType, severity, message, location string, value, threshold float64) (*WarningEvent, error) {
	if warningType == "" {
		return nil, fmt.Errorf("warning type cannot be empty")
	}
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
	default:
		return nil, fmt.Errorf("invalid severity %q", severity)
	}

	return &WarningEvent{
		WarningType: warningType,
		Severity:    severity,
		Message:     message,
		Location:    location,
		Value:       value,
		Threshold:   threshold,
		Timestamp:   time.Now(),
	}, nil
}

func (w *WarningEvent) GetComponent() string    { return "warning" }
func (w *WarningEvent) GetCategory() string     { return w.WarningType }
func (w *WarningEvent) GetTimestamp() time.Time { return w.Timestamp }
func (w *WarningEvent) GetMessage() string      { return w.Message }
