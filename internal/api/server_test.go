package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{}
	cfg := ConfigFromSettings(s)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultBodyLimit, cfg.BodyLimit)
	require.NoError(t, cfg.Validate())

	s.WebServer.Listen = "127.0.0.1:9090"
	s.WebServer.MaxConnections = 16
	s.WebServer.BodyLimit = "1M"
	cfg = ConfigFromSettings(s)
	assert.Equal(t, "127.0.0.1:9090", cfg.Listen)
	assert.Equal(t, 16, cfg.MaxConnections)
	assert.Equal(t, "1M", cfg.BodyLimit)
	assert.Contains(t, cfg.String(), "max_connections=16")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"negative connections", func(c *Config) { c.MaxConnections = -1 }},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
		})
	}
}

func TestServerServesUntilCancelled(t *testing.T) {
	ds, err := datastore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	settings := &conf.Settings{}
	settings.Main.Location = "greenhouse"
	settings.WebServer.MaxConnections = 4

	srv, err := New(settings, ds)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: 2 * time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Get(base + "/api/v2/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
