// Package api implements the FarmWatch JSON API served under /api/v2.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/market"
	"github.com/farmwatch/farmwatch/internal/mqtt"
	"github.com/farmwatch/farmwatch/internal/observability"
	"github.com/farmwatch/farmwatch/internal/pestcontrol"
	"github.com/farmwatch/farmwatch/internal/preprocess"
	"github.com/farmwatch/farmwatch/internal/sensors"
	"github.com/farmwatch/farmwatch/internal/traceability"
	"github.com/farmwatch/farmwatch/internal/warning"
)

// Report caching
const (
	reportCacheTTL     = 5 * time.Minute
	reportCacheCleanup = 10 * time.Minute
)

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Controller wires the domain services to the API routes.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	Preprocessor *preprocess.Preprocessor
	Warnings     *warning.Service
	Advisor      *pestcontrol.Advisor
	Market       *market.Analyzer
	Trace        *traceability.Manager
	Collector    *sensors.Collector

	version   string
	metrics   *observability.Metrics
	newMQTT   func() mqtt.Client
	reports   *cache.Cache
	reportsSF singleflight.Group
	startTime time.Time
	now       func() time.Time
	log       logger.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithCollector enables the sensor routes.
func WithCollector(c *sensors.Collector) Option {
	return func(ctl *Controller) { ctl.Collector = c }
}

// WithWarningService shares a warning service with the scheduler.
func WithWarningService(s *warning.Service) Option {
	return func(ctl *Controller) { ctl.Warnings = s }
}

// WithPreprocessor replaces the default preprocessor.
func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(ctl *Controller) { ctl.Preprocessor = p }
}

// WithMetrics mounts /metrics and reports through m.
func WithMetrics(m *observability.Metrics) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// WithMQTTClientFactory enables POST /mqtt/test. Each test gets a fresh client.
func WithMQTTClientFactory(fn func() mqtt.Client) Option {
	return func(ctl *Controller) { ctl.newMQTT = fn }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(ctl *Controller) { ctl.version = v }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

// New creates the controller and registers its routes on e. Services not
// supplied through options are built from ds and settings.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		Echo:      e,
		Group:     e.Group("/api/v2"),
		DS:        ds,
		Settings:  settings,
		reports:   cache.New(reportCacheTTL, reportCacheCleanup),
		startTime: time.Now(),
		now:       time.Now,
		log:       GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Preprocessor == nil {
		c.Preprocessor = preprocess.New(ds)
	}
	if c.Warnings == nil {
		c.Warnings = warning.NewService(ds, settings)
	}
	if c.Advisor == nil {
		c.Advisor = pestcontrol.NewAdvisor(ds)
	}
	if c.Market == nil {
		c.Market = market.NewAnalyzer(ds, c.now)
	}
	if c.Trace == nil {
		c.Trace = traceability.NewManager(ds, settings.Traceability)
	}

	// readings saved by MQTT ingestion or the collector go through the same store
	if n, ok := ds.(datastore.WriteNotifier); ok {
		n.AddWriteHook(c.onStoreWrite)
	}

	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"system routes", c.initSystemRoutes},
		{"environment routes", c.initEnvironmentRoutes},
		{"prediction routes", c.initPredictionRoutes},
		{"warning routes", c.initWarningRoutes},
		{"treatment routes", c.initTreatmentRoutes},
		{"market routes", c.initMarketRoutes},
		{"product routes", c.initProductRoutes},
		{"sensor routes", c.initSensorRoutes},
		{"mqtt routes", c.initMQTTRoutes},
	}
	for _, r := range routeInitializers {
		r.fn()
		c.log.Trace("routes registered", logger.String("group", r.name))
	}

	if c.metrics != nil && c.Settings.Telemetry.Enabled && c.Settings.Telemetry.Listen == "" {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// HealthCheck handles GET /api/v2/health
func (c *Controller) HealthCheck(ctx echo.Context) error {
	status := "healthy"
	dbStatus := "connected"
	if err := c.DS.Ping(); err != nil {
		status = "degraded"
		dbStatus = "error"
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         status,
		"database":       dbStatus,
		"version":        c.version,
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
		"timestamp":      c.now().Format(time.RFC3339),
	})
}

// Shutdown drops cached reports.
func (c *Controller) Shutdown() {
	c.reports.Flush()
}
