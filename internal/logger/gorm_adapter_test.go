package logger_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/farmwatch/farmwatch/internal/logger"
)

func TestGormAdapterTrace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		sql     string
		err     error
		want    string
		absent  string
	}{
		{name: "failed query", sql: "SELECT 1", err: errors.New("boom"), want: "query failed"},
		{name: "not found is quiet", sql: "SELECT 2", err: gorm.ErrRecordNotFound, want: "SELECT 2", absent: "query failed"},
		{name: "slow query", sql: "SELECT 3", elapsed: time.Second, want: "slow query"},
		{name: "long sql truncated", sql: strings.Repeat("x", 2000), want: "...", absent: strings.Repeat("x", 600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			a := logger.NewGormLoggerAdapter(logger.NewSlogLogger(&buf, logger.LogLevelTrace, time.UTC), 100*time.Millisecond)

			a.Trace(context.Background(), time.Now().Add(-tt.elapsed), func() (string, int64) { return tt.sql, 1 }, tt.err)

			assert.Contains(t, buf.String(), tt.want)
			if tt.absent != "" {
				assert.NotContains(t, buf.String(), tt.absent)
			}
		})
	}
}

func TestGormAdapterLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := logger.NewGormLoggerAdapter(logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC), 0)
	a.LogMode(0).Info(context.Background(), "migrating %s", "users")
	a.Warn(context.Background(), "careful %d", 1)

	assert.NotContains(t, buf.String(), "migrating users")
	assert.Contains(t, buf.String(), "careful 1")
}
