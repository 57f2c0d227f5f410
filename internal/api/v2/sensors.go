package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/sensors"
)

// SensorStatusResponse combines live collector state with stored device rows.
type SensorStatusResponse struct {
	Sensors []sensors.SensorState    `json:"sensors"`
	Devices []datastore.DeviceStatus `json:"devices"`
}

func (c *Controller) initSensorRoutes() {
	g := c.Group.Group("/sensors")
	g.GET("/status", c.GetSensorStatus)
	g.POST("/test", c.TestSensors)
}

// GetSensorStatus handles GET /api/v2/sensors/status
func (c *Controller) GetSensorStatus(ctx echo.Context) error {
	devices, err := c.DS.ListDeviceStatus()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load device status", 0)
	}
	resp := SensorStatusResponse{Sensors: []sensors.SensorState{}, Devices: devices}
	if resp.Devices == nil {
		resp.Devices = []datastore.DeviceStatus{}
	}
	if c.Collector != nil {
		resp.Sensors = c.Collector.Status()
	}
	return ctx.JSON(http.StatusOK, resp)
}

// TestSensors handles POST /api/v2/sensors/test
func (c *Controller) TestSensors(ctx echo.Context) error {
	if c.Collector == nil {
		return c.HandleError(ctx, nil, "Data collection is not running", http.StatusServiceUnavailable)
	}
	rows, err := c.Collector.TestAll(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Sensor test failed", 0)
	}
	return ctx.JSON(http.StatusOK, rows)
}
