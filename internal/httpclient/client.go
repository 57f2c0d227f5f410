// Package httpclient is the outbound HTTP client used for provider APIs.
// It sets a User-Agent, bounds every request with a timeout and reports
// each round trip to an optional observer.
package httpclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const (
	// DefaultTimeout bounds a request including reading its body.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "FarmWatch"
)

// Observer is called after every round trip. resp is nil when err is set.
type Observer func(req *http.Request, resp *http.Response, err error)

// Config configures a Client. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	// Transport defaults to http.DefaultTransport, resolved per request.
	Transport http.RoundTripper
}

// Client wraps http.Client. It is safe for concurrent use.
type Client struct {
	client    *http.Client
	userAgent string

	mu      sync.RWMutex
	observe Observer
}

// New creates a client. cfg may be nil.
func New(cfg *Config) *Client {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return &Client{
		client:    &http.Client{Timeout: c.Timeout, Transport: c.Transport},
		userAgent: c.UserAgent,
	}
}

// SetObserver installs fn as the round trip observer.
func (c *Client) SetObserver(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = fn
}

// Do sends req with ctx. The caller must close the body when err is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.NewStd("nil request")
	}
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)

	c.mu.RLock()
	observe := c.observe
	c.mu.RUnlock()
	if observe != nil {
		observe(req, resp, err)
	}
	return resp, err
}

// Get sends a GET request with the given extra headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component("httpclient").
			Category(errors.CategoryNetwork).
			Context("operation", "create_request").
			Build()
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(ctx, req)
}

// Close drops idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
