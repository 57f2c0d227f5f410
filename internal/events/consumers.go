package events

import (
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// LogConsumer writes warnings and errors to a logger.
type LogConsumer struct {
	logger logger.Logger
}

// NewLogConsumer creates a log consumer; nil uses the events module logger.
func NewLogConsumer(log logger.Logger) *LogConsumer {
	if log == nil {
		log = GetLogger()
	}
	return &LogConsumer{logger: log}
}

func (c *LogConsumer) Name() string { return "log" }

func (c *LogConsumer) ProcessEvent(event Event) error {
	switch e := event.(type) {
	case *WarningEvent:
		fields := []logger.Field{
			logger.String("warning_type", e.WarningType),
			logger.String("severity", e.Severity),
			logger.String("location", e.Location),
			logger.Float64("value", e.Value),
			logger.Float64("threshold", e.Threshold),
		}
		if e.Subject != "" {
			fields = append(fields, logger.String("subject", e.Subject))
		}
		if e.Severity == SeverityHigh {
			c.logger.Warn(e.Message, fields...)
		} else {
			c.logger.Info(e.Message, fields...)
		}
	case ErrorEvent:
		c.logger.Error("error reported",
			logger.String("component", e.GetComponent()),
			logger.String("category", e.GetCategory()),
			logger.String("message", logger.RedactSensitiveData(e.GetMessage())))
	}
	return nil
}

// WarningRecorder is the metrics surface used by MetricsConsumer.
type WarningRecorder interface {
	RecordWarning(warningType, severity string)
	RecordError(component, category string)
}

// MetricsConsumer counts warnings and errors.
type MetricsConsumer struct {
	recorder WarningRecorder
}

// NewMetricsConsumer creates a metrics consumer.
func NewMetricsConsumer(recorder WarningRecorder) *MetricsConsumer {
	return &MetricsConsumer{recorder: recorder}
}

func (c *MetricsConsumer) Name() string { return "metrics" }

func (c *MetricsConsumer) ProcessEvent(event Event) error {
	if c.recorder == nil {
		return nil
	}
	switch e := event.(type) {
	case *WarningEvent:
		c.recorder.RecordWarning(e.WarningType, e.Severity)
	case ErrorEvent:
		c.recorder.RecordError(e.GetComponent(), e.GetCategory())
	}
	return nil
}

// ErrorReporter forwards error events to an external telemetry system.
type ErrorReporter interface {
	Report(event ErrorEvent)
}

// TelemetryConsumer hands error events to an ErrorReporter once each.
type TelemetryConsumer struct {
	reporter ErrorReporter
}

// NewTelemetryConsumer creates a telemetry consumer.
func NewTelemetryConsumer(reporter ErrorReporter) *TelemetryConsumer {
	return &TelemetryConsumer{reporter: reporter}
}

func (c *TelemetryConsumer) Name() string { return "telemetry" }

func (c *TelemetryConsumer) ProcessEvent(event Event) error {
	e, ok := event.(ErrorEvent)
	if !ok || c.reporter == nil || e.IsReported() {
		return nil
	}
	c.reporter.Report(e)
	return nil
}

// GlobalTelemetryReporter sends enhanced errors to the reporter installed
// with errors.SetTelemetryReporter.
type GlobalTelemetryReporter struct{}

func (GlobalTelemetryReporter) Report(event ErrorEvent) {
	ee, ok := event.(*errors.EnhancedError)
	if !ok {
		return
	}
	if r := errors.GetTelemetryReporter(); r != nil && r.IsEnabled() {
		r.ReportError(ee)
	}
}
