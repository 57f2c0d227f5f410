// Package errors builds categorized errors that are optionally reported to
// Sentry and the event bus.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors for reporting and HTTP status mapping.
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryFileIO         ErrorCategory = "file-io"
	CategoryNetwork        ErrorCategory = "network"
	CategoryDatabase       ErrorCategory = "database"
	CategoryHTTP           ErrorCategory = "http-request"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategorySystem         ErrorCategory = "system-resource"
	CategoryMQTTConnection ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish    ErrorCategory = "mqtt-publish"
	CategoryMQTTAuth       ErrorCategory = "mqtt-authentication"
	CategoryGeneric        ErrorCategory = "generic"
	CategoryNotFound       ErrorCategory = "not-found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryProcessing     ErrorCategory = "processing"
	CategoryState          ErrorCategory = "state"
	CategoryLimit          ErrorCategory = "limit"
	CategoryTimeout        ErrorCategory = "timeout"
	CategoryCancellation   ErrorCategory = "cancellation"

	CategorySensor        ErrorCategory = "sensor"
	CategoryPreprocessing ErrorCategory = "preprocessing"
	CategoryWarning       ErrorCategory = "warning-check"
	CategoryTreatment     ErrorCategory = "treatment-plan"
	CategoryTraceability  ErrorCategory = "traceability"
	CategoryMarket        ErrorCategory = "market"
	CategoryWeather       ErrorCategory = "weather"
)

// Priorities override the level Sentry events are sent with.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

const modulePrefix = "github.com/farmwatch/farmwatch/internal/"

// hasActiveReporting is set while a reporter or publisher is installed.
// Without it Build skips stack inspection and category guessing.
var hasActiveReporting atomic.Bool

// EnhancedError is an error with component, category and context. It is
// immutable once built, apart from the reported flag.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Priority  string
	Context   map[string]any
	Timestamp time.Time

	component string
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string { return ee.Err.Error() }

func (ee *EnhancedError) Unwrap() error { return ee.Err }

// Is matches another EnhancedError of the same category, then the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetComponent returns the component that raised the error.
func (ee *EnhancedError) GetComponent() string { return ee.component }

// GetCategory returns the category as a string.
func (ee *EnhancedError) GetCategory() string { return string(ee.Category) }

// GetPriority returns the explicit priority, or "".
func (ee *EnhancedError) GetPriority() string { return ee.Priority }

// GetContext returns a copy of the context.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

func (ee *EnhancedError) GetTimestamp() time.Time { return ee.Timestamp }

func (ee *EnhancedError) GetError() error { return ee.Err }

// GetMessage returns the wrapped error message.
func (ee *EnhancedError) GetMessage() string {
	if ee.Err == nil {
		return ""
	}
	return ee.Err.Error()
}

// MarkReported records that the error was sent to telemetry.
func (ee *EnhancedError) MarkReported() { ee.reported.Store(true) }

// IsReported reports whether MarkReported was called.
func (ee *EnhancedError) IsReported() bool { return ee.reported.Load() }

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New starts a builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts a builder with a formatted error; %w wraps as in fmt.Errorf.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Priority sets the priority; unknown values become medium.
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case "":
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		eb.priority = PriorityMedium
	}
	return eb
}

// Context adds a key to the error context.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any, 4)
	}
	eb.context[key] = value
	return eb
}

// Timing records how long the failed operation ran.
func (eb *ErrorBuilder) Timing(operation string, elapsed time.Duration) *ErrorBuilder {
	return eb.Context("operation", operation).Context("duration_ms", elapsed.Milliseconds())
}

// Build creates the error and reports it when reporting is active.
func (eb *ErrorBuilder) Build() *EnhancedError {
	reporting := hasActiveReporting.Load()

	component, category := eb.component, eb.category
	if component == "" {
		component = ComponentUnknown
		if reporting {
			component = callerComponent()
		}
	}
	if category == "" {
		category = CategoryGeneric
		if reporting {
			category = detectCategory(eb.err, component)
		}
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Category:  category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: component,
	}
	if reporting {
		reportToTelemetry(ee)
	}
	return ee
}

// componentAliases renames packages whose directory differs from the
// component name used in reports.
var componentAliases = map[string]string{
	"conf":     "configuration",
	"v2":       "api",
	"metrics":  "observability",
	"analysis": "runtime",
}

// callerComponent names the first internal package on the stack outside
// this one.
func callerComponent() string {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if pkg, ok := strings.CutPrefix(frame.Function, modulePrefix); ok {
			// "datastore.(*DataStore).Save" or "api/v2.(*Controller).Get"
			pkg, _, _ = strings.Cut(pkg, ".")
			if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
				pkg = pkg[i+1:]
			}
			if pkg != "errors" {
				if alias, ok := componentAliases[pkg]; ok {
					return alias
				}
				return pkg
			}
		}
		if !more {
			return ComponentUnknown
		}
	}
}

// messageRules are checked in order against the lowercased message.
var messageRules = []struct {
	substr   string
	category ErrorCategory
}{
	{"not found", CategoryNotFound},
	{"context canceled", CategoryCancellation},
	{"deadline exceeded", CategoryTimeout},
	{"connection", CategoryNetwork},
	{"timeout", CategoryNetwork},
	{"permission denied", CategoryFileIO},
	{"no such file", CategoryFileIO},
	{"invalid", CategoryValidation},
	{"validation", CategoryValidation},
}

var componentCategories = map[string]ErrorCategory{
	"datastore":    CategoryDatabase,
	"preprocess":   CategoryPreprocessing,
	"sensors":      CategorySensor,
	"warning":      CategoryWarning,
	"pestcontrol":  CategoryTreatment,
	"traceability": CategoryTraceability,
	"market":       CategoryMarket,
	"weather":      CategoryWeather,
	"api":          CategoryHTTP,
	"mqtt":         CategoryMQTTConnection,
}

// detectCategory guesses a category from a wrapped EnhancedError, the
// message and finally the component.
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}
	var inner *EnhancedError
	if stderrors.As(err, &inner) && inner.Category != "" {
		return inner.Category
	}

	msg := strings.ToLower(err.Error())
	for _, r := range messageRules {
		if strings.Contains(msg, r.substr) {
			return r.category
		}
	}
	if c, ok := componentCategories[component]; ok {
		return c
	}
	return CategoryGeneric
}

// ValidationError creates a validation error.
func ValidationError(message string) *EnhancedError {
	return New(NewStd(message)).
		Category(CategoryValidation).
		Build()
}

// NotFound creates a not-found error for resource id.
func NotFound(resource, id string) *EnhancedError {
	return Newf("%s %s not found", resource, id).
		Category(CategoryNotFound).
		Context("resource", resource).
		Build()
}

// NewStd is errors.New from the standard library.
func NewStd(text string) error { return stderrors.New(text) }

// Is is errors.Is from the standard library.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As from the standard library.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Unwrap is errors.Unwrap from the standard library.
func Unwrap(err error) error { return stderrors.Unwrap(err) }

// Join is errors.Join from the standard library.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// IsCategory reports whether err wraps an EnhancedError of category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

// IsNotFound reports whether err wraps a not-found error.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
