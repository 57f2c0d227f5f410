package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/mqtt"
)

const mqttTestTimeout = 20 * time.Second

func (c *Controller) initMQTTRoutes() {
	c.Group.POST("/mqtt/test", c.TestMQTTConnection)
}

// TestMQTTConnection handles POST /api/v2/mqtt/test. Stage results are
// streamed as newline delimited JSON.
func (c *Controller) TestMQTTConnection(ctx echo.Context) error {
	if !c.Settings.Sensors.MQTT.Enabled || c.newMQTT == nil {
		return ctx.JSON(http.StatusOK, mqtt.TestResult{
			Success: false,
			Stage:   "configuration",
			Message: "MQTT is not enabled in settings",
			State:   "failed",
		})
	}
	if c.Settings.Sensors.MQTT.Broker == "" {
		return c.badRequest(ctx, nil, "MQTT broker not configured")
	}

	client := c.newMQTT()
	testCtx, cancel := context.WithTimeout(ctx.Request().Context(), mqttTestTimeout)
	defer cancel()

	results := make(chan mqtt.TestResult)
	start := time.Now()
	go func() {
		defer close(results)
		client.TestConnection(testCtx, results)
	}()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(res)

	for r := range results {
		if err := enc.Encode(r); err != nil {
			c.log.Warn("writing mqtt test result failed", logger.Error(err))
		}
		res.Flush()
	}
	client.Disconnect()

	return enc.Encode(map[string]any{
		"elapsed_time_ms": time.Since(start).Milliseconds(),
		"state":           "completed",
	})
}
