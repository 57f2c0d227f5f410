package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(client.Close)
	return client
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	c := New(nil)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
	assert.Equal(t, defaultUserAgent, c.userAgent)

	c = New(&Config{Timeout: 5 * time.Second, UserAgent: "Test/1.0"})
	assert.Equal(t, 5*time.Second, c.client.Timeout)
	assert.Equal(t, "Test/1.0", c.userAgent)
}

func TestGetSendsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotIfModified string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotIfModified = r.Header.Get("If-Modified-Since")
		_, _ = w.Write([]byte("ok"))
	})

	client := newTestClient(t, &Config{UserAgent: "FarmWatch-Test"})
	header := http.Header{}
	header.Set("If-Modified-Since", "Mon, 02 Jan 2026 15:04:05 GMT")

	resp, err := client.Get(t.Context(), server.URL, header)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "FarmWatch-Test", gotUA)
	assert.Equal(t, "Mon, 02 Jan 2026 15:04:05 GMT", gotIfModified)
}

func TestExplicitUserAgentKept(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	})

	client := newTestClient(t, nil)
	header := http.Header{}
	header.Set("User-Agent", "Custom/2.0")
	resp, err := client.Get(t.Context(), server.URL, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Custom/2.0", gotUA)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := newTestClient(t, &Config{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.Get(t.Context(), server.URL, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := newTestClient(t, nil)
	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := client.Get(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserver(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	client := newTestClient(t, nil)
	var calls atomic.Int32
	var status atomic.Int32
	client.SetObserver(func(req *http.Request, resp *http.Response, err error) {
		calls.Add(1)
		if resp != nil {
			status.Store(int32(resp.StatusCode))
		}
	})

	resp, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(http.StatusTeapot), status.Load())
}

func TestConcurrentRequests(t *testing.T) {
	t.Parallel()

	var served atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
	})

	client := newTestClient(t, nil)
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(t.Context(), server.URL, nil)
			if assert.NoError(t, err) {
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), served.Load())
}

func TestDoNilRequest(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Do(t.Context(), nil)
	require.Error(t, err)
}
