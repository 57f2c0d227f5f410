package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/preprocess"
	"github.com/farmwatch/farmwatch/internal/sensors"
)

// EnvironmentResponse is the hourly aggregated data of a period.
type EnvironmentResponse struct {
	Days   int                      `json:"days"`
	Start  time.Time                `json:"start"`
	End    time.Time                `json:"end"`
	Points []preprocess.HourlyPoint `json:"data"`
}

// ProcessedResponse is the output of the preprocessing pipeline.
type ProcessedResponse struct {
	*preprocess.Result
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
}

func (c *Controller) initEnvironmentRoutes() {
	g := c.Group.Group("/environment")
	g.GET("", c.GetEnvironment)
	g.POST("", c.PostEnvironment)
	g.GET("/latest", c.GetLatestEnvironment)
	g.GET("/quality", c.GetQualityReport)
	g.GET("/processed", c.GetProcessedEnvironment)
}

func (c *Controller) period(ctx echo.Context) (days int, start, end time.Time, err error) {
	days, err = intParam(ctx, "days", defaultDays, maxDays)
	if err != nil {
		return 0, start, end, err
	}
	end = c.now()
	start = end.AddDate(0, 0, -days)
	return days, start, end, nil
}

// GetEnvironment handles GET /api/v2/environment
func (c *Controller) GetEnvironment(ctx echo.Context) error {
	days, start, end, err := c.period(ctx)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid days parameter")
	}
	rows, err := c.DS.GetEnvironmentData(start, end)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load environment data", 0)
	}
	points := preprocess.AggregateHourly(preprocess.FrameFromEnvironment(rows))
	if points == nil {
		points = []preprocess.HourlyPoint{}
	}
	return ctx.JSON(http.StatusOK, EnvironmentResponse{Days: days, Start: start, End: end, Points: points})
}

// GetLatestEnvironment handles GET /api/v2/environment/latest
func (c *Controller) GetLatestEnvironment(ctx echo.Context) error {
	latest, err := c.DS.LatestEnvironmentData()
	if err != nil {
		return c.HandleError(ctx, err, "No environment data available", 0)
	}
	return ctx.JSON(http.StatusOK, latest)
}

// PostEnvironment handles POST /api/v2/environment
func (c *Controller) PostEnvironment(ctx echo.Context) error {
	var p sensors.ReadingPayload
	if err := ctx.Bind(&p); err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	if err := p.Validate(); err != nil {
		return c.HandleError(ctx, err, "Invalid reading", 0)
	}

	reading := &datastore.EnvironmentData{
		Timestamp:      c.now(),
		Temperature:    p.Temperature,
		Humidity:       p.Humidity,
		SoilMoisture:   p.SoilMoisture,
		LightIntensity: p.LightIntensity,
		WindSpeed:      p.WindSpeed,
		Rainfall:       p.Rainfall,
		AirPressure:    p.AirPressure,
		Location:       p.Location,
		SensorID:       p.SensorID,
	}
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		reading.Timestamp = *p.Timestamp
	}
	if reading.Location == "" {
		reading.Location = c.Settings.Main.Location
	}

	if err := c.DS.SaveEnvironmentData(reading); err != nil {
		return c.HandleError(ctx, err, "Failed to save reading", 0)
	}
	c.invalidateReports(qualityKeyPrefix)
	return ctx.JSON(http.StatusCreated, reading)
}

// GetQualityReport handles GET /api/v2/environment/quality
func (c *Controller) GetQualityReport(ctx echo.Context) error {
	days, start, end, err := c.period(ctx)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid days parameter")
	}

	report, err := cachedReport(ctx.Request().Context(), c, fmt.Sprintf("%s%d", qualityKeyPrefix, days), func(rctx context.Context) (*preprocess.QualityReport, error) {
		return c.Preprocessor.QualityReport(rctx, start, end)
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build quality report", 0)
	}
	return ctx.JSON(http.StatusOK, report)
}

// GetProcessedEnvironment handles GET /api/v2/environment/processed
func (c *Controller) GetProcessedEnvironment(ctx echo.Context) error {
	_, start, end, err := c.period(ctx)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid days parameter")
	}
	opts := preprocess.OptionsFromSettings(c.Settings.Preprocess)
	if opts.Smooth, err = boolParam(ctx, "smooth"); err != nil {
		return c.badRequest(ctx, err, "Invalid smooth parameter")
	}
	if opts.Normalize, err = boolParam(ctx, "normalize"); err != nil {
		return c.badRequest(ctx, err, "Invalid normalize parameter")
	}

	res, err := c.Preprocessor.Process(ctx.Request().Context(), start, end, opts)
	if err != nil {
		return c.HandleError(ctx, err, "Preprocessing failed", 0)
	}
	return ctx.JSON(http.StatusOK, ProcessedResponse{
		Result:  res,
		Columns: res.Frame.ColumnNames(),
		Records: res.Frame.Records(),
	})
}
