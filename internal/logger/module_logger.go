package logger

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"
)

const (
	// slog has no TRACE; it sits one step below DEBUG (-4)
	traceLevelValue = slog.Level(-8)

	moduleKey  = "module"
	traceIDKey = "trace_id"
)

var levelsByName = map[string]slog.Level{
	"trace":   traceLevelValue,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLogLevel maps a config level name; unknown names are info.
func parseLogLevel(name string) slog.Level {
	if level, ok := levelsByName[name]; ok {
		return level
	}
	return slog.LevelInfo
}

func parseSlogLevel(level LogLevel) slog.Level {
	return parseLogLevel(string(level))
}

// moduleLogger is the Logger handed out by CentralLogger.Module. attrs holds
// the module name and every With field, already converted.
type moduleLogger struct {
	module string
	logger *slog.Logger
	level  slog.Level
	attrs  []slog.Attr
}

func newModuleLogger(module string, h slog.Handler, level slog.Level) *moduleLogger {
	m := &moduleLogger{module: module, logger: slog.New(h), level: level}
	if module != "" {
		m.attrs = []slog.Attr{slog.String(moduleKey, module)}
	}
	return m
}

// derive copies m with a new module name and extra fields.
func (m *moduleLogger) derive(module string, fields []Field) *moduleLogger {
	attrs := make([]slog.Attr, 0, len(m.attrs)+len(fields)+1)
	if module != "" {
		attrs = append(attrs, slog.String(moduleKey, module))
	}
	for _, a := range m.attrs {
		if a.Key != moduleKey {
			attrs = append(attrs, a)
		}
	}
	for _, f := range fields {
		attrs = append(attrs, fieldToAttr(f))
	}
	return &moduleLogger{module: module, logger: m.logger, level: m.level, attrs: attrs}
}

// Module nests name under the current module, as in "sensors.mqtt".
func (m *moduleLogger) Module(name string) Logger {
	if m == nil {
		return nil
	}
	if m.module != "" {
		name = m.module + "." + name
	}
	return m.derive(name, nil)
}

func (m *moduleLogger) With(fields ...Field) Logger {
	if m == nil {
		return nil
	}
	return m.derive(m.module, fields)
}

// WithContext adds the trace ID carried by ctx, if any.
func (m *moduleLogger) WithContext(ctx context.Context) Logger {
	if m == nil {
		return nil
	}
	if id := traceIDFrom(ctx); id != "" {
		return m.With(String(traceIDKey, id))
	}
	return m
}

func (m *moduleLogger) Trace(msg string, fields ...Field) { m.emit(traceLevelValue, msg, fields) }
func (m *moduleLogger) Debug(msg string, fields ...Field) { m.emit(slog.LevelDebug, msg, fields) }
func (m *moduleLogger) Info(msg string, fields ...Field)  { m.emit(slog.LevelInfo, msg, fields) }
func (m *moduleLogger) Warn(msg string, fields ...Field)  { m.emit(slog.LevelWarn, msg, fields) }
func (m *moduleLogger) Error(msg string, fields ...Field) { m.emit(slog.LevelError, msg, fields) }

func (m *moduleLogger) Log(level LogLevel, msg string, fields ...Field) {
	m.emit(parseSlogLevel(level), msg, fields)
}

// Flush is a no-op; files belong to the CentralLogger.
func (m *moduleLogger) Flush() error { return nil }

func (m *moduleLogger) emit(level slog.Level, msg string, fields []Field) {
	if m == nil || level < m.level {
		return
	}
	attrs := slices.Grow(slices.Clip(m.attrs), len(fields))
	for _, f := range fields {
		attrs = append(attrs, fieldToAttr(f))
	}
	m.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// fieldToAttr redacts secrets and keeps numbers readable: floats are
// rounded to 3 decimals, NaN becomes a string since JSON cannot hold it.
func fieldToAttr(f Field) slog.Attr {
	f = redactField(f)
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint64:
		return slog.Uint64(f.Key, v)
	case float32:
		return floatAttr(f.Key, float64(v))
	case float64:
		return floatAttr(f.Key, v)
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	case time.Duration:
		return slog.String(f.Key, v.Round(time.Millisecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}

func floatAttr(key string, v float64) slog.Attr {
	switch {
	case math.IsNaN(v):
		return slog.String(key, "NaN")
	case math.IsInf(v, 0):
		return slog.Float64(key, v)
	}
	return slog.Float64(key, math.Round(v*1000)/1000)
}
