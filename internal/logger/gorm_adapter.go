package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxLoggedSQL caps statements in log lines; batch inserts of readings run
// to megabytes.
const maxLoggedSQL = 512

// gormAdapter routes gorm output into a module logger. Statements go to
// TRACE, slow statements and failures to WARN.
type gormAdapter struct {
	log  Logger
	slow time.Duration
}

// NewGormLoggerAdapter returns a gorm logger writing to log. A zero slow
// threshold disables slow query warnings.
func NewGormLoggerAdapter(log Logger, slow time.Duration) gormlogger.Interface {
	if log == nil {
		log = Global().Module("datastore")
	}
	return &gormAdapter{log: log, slow: slow}
}

// LogMode is a no-op; levels come from the module configuration.
func (a *gormAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface { return a }

func (a *gormAdapter) Info(_ context.Context, msg string, args ...any) {
	a.log.Debug(fmt.Sprintf(msg, args...))
}

func (a *gormAdapter) Warn(_ context.Context, msg string, args ...any) {
	a.log.Warn(fmt.Sprintf(msg, args...))
}

func (a *gormAdapter) Error(_ context.Context, msg string, args ...any) {
	a.log.Error(fmt.Sprintf(msg, args...))
}

func (a *gormAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	if len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "..."
	}
	fields := []Field{String("sql", sql), Int64("rows", rows), Duration("elapsed", elapsed)}
	log := a.log.WithContext(ctx)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("query failed", append(fields, Error(err))...)
		return
	}
	if a.slow > 0 && elapsed > a.slow {
		log.Warn("slow query", append(fields, Duration("threshold", a.slow))...)
		return
	}
	log.Trace("query", fields...)
}
