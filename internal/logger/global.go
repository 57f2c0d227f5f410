package logger

import (
	"context"
	"os"
	"sync"
	"time"
)

var (
	global   *CentralLogger
	globalMu sync.Mutex
)

// SetGlobal installs cl as the process logger. main calls it once the
// configuration is loaded.
func SetGlobal(cl *CentralLogger) {
	globalMu.Lock()
	global = cl
	globalMu.Unlock()
}

// Global returns the process logger. Before SetGlobal it is an info-level
// console logger.
func Global() *CentralLogger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = &CentralLogger{
			config: &LoggingConfig{
				DefaultLevel: DefaultLogLevel,
				Console:      &ConsoleOutput{Enabled: true, Level: DefaultLogLevel},
			},
			timezone: time.Local,
			base:     newTextHandler(os.Stdout, parseLogLevel(DefaultLogLevel), time.Local),
			files:    make(map[string]*BufferedFileWriter),
		}
	}
	return global
}

type traceIDContextKey struct{}

// TraceIDKey is the context key read by Logger.WithContext.
var TraceIDKey = traceIDContextKey{}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func traceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}
