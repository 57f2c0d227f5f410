package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

func (c *Controller) initPredictionRoutes() {
	c.Group.GET("/predictions", c.GetPredictions)
	c.Group.POST("/predictions", c.PostPrediction)
}

// GetPredictions handles GET /api/v2/predictions
func (c *Controller) GetPredictions(ctx echo.Context) error {
	limit, err := intParam(ctx, "limit", defaultLimit, maxLimit)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid limit parameter")
	}
	rows, err := c.DS.LatestPredictions(limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load predictions", 0)
	}
	if rows == nil {
		rows = []datastore.PredictionResult{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

// PostPrediction handles POST /api/v2/predictions
func (c *Controller) PostPrediction(ctx echo.Context) error {
	var p datastore.PredictionResult
	if err := ctx.Bind(&p); err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	p.ID = 0
	if err := validatePrediction(&p); err != nil {
		return c.HandleError(ctx, err, "Invalid prediction", 0)
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = c.now()
	}
	if p.Location == "" {
		p.Location = c.Settings.Main.Location
	}
	if err := c.DS.SavePrediction(&p); err != nil {
		return c.HandleError(ctx, err, "Failed to save prediction", 0)
	}
	return ctx.JSON(http.StatusCreated, p)
}

func validatePrediction(p *datastore.PredictionResult) error {
	var problems []string
	if p.PredictionType != datastore.PredictionPest && p.PredictionType != datastore.PredictionDisease {
		problems = append(problems, "prediction_type must be pest or disease")
	}
	if p.Target == "" {
		problems = append(problems, "target is required")
	}
	if p.RiskLevel < 0 || p.RiskLevel > 1 {
		problems = append(problems, "risk_level must be between 0 and 1")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		problems = append(problems, "confidence must be between 0 and 1")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Newf("%s", strings.Join(problems, "; ")).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}
