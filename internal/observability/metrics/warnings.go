package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WarningMetrics counts raised warnings and categorized errors seen on the event bus.
type WarningMetrics struct {
	warningsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// NewWarningMetrics creates and registers the warning collectors.
func NewWarningMetrics(registry *prometheus.Registry) (*WarningMetrics, error) {
	m := &WarningMetrics{
		warningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_warnings_raised_total",
			Help: "Total number of warnings raised by type and severity",
		}, []string{"type", "severity"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_errors_total",
			Help: "Total number of categorized errors by component",
		}, []string{"component", "category"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register warning metrics: %w", err)
	}
	return m, nil
}

func (m *WarningMetrics) RecordWarning(warningType, severity string) {
	m.warningsTotal.WithLabelValues(warningType, severity).Inc()
}

func (m *WarningMetrics) RecordError(component, category string) {
	m.errorsTotal.WithLabelValues(component, category).Inc()
}

// Describe implements the Collector interface
func (m *WarningMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.warningsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *WarningMetrics) Collect(ch chan<- prometheus.Metric) {
	m.warningsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
}
