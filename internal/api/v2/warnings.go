package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/warning"
)

// CheckResponse lists the warnings raised by a manual check.
type CheckResponse struct {
	Count    int               `json:"count"`
	Warnings []warning.Warning `json:"warnings"`
}

func (c *Controller) initWarningRoutes() {
	g := c.Group.Group("/warnings")
	g.GET("", c.GetWarnings)
	g.POST("/check", c.CheckWarnings)
	g.POST("/:id/resolve", c.ResolveWarning)
}

// GetWarnings handles GET /api/v2/warnings
func (c *Controller) GetWarnings(ctx echo.Context) error {
	status := ctx.QueryParam("status")
	switch status {
	case "", datastore.WarningActive, datastore.WarningResolved:
	default:
		return c.badRequest(ctx, nil, "status must be active or resolved")
	}
	limit, err := intParam(ctx, "limit", defaultLimit, maxLimit)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid limit parameter")
	}

	rows, err := c.DS.ListWarnings(status, limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load warnings", 0)
	}
	if rows == nil {
		rows = []datastore.WarningRecord{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

// CheckWarnings handles POST /api/v2/warnings/check
func (c *Controller) CheckWarnings(ctx echo.Context) error {
	raised, err := c.Warnings.RunCheck(ctx.Request().Context())
	if errors.Is(err, warning.ErrCheckRunning) {
		return c.HandleError(ctx, err, "A warning check is already running", http.StatusConflict)
	}
	if err != nil {
		return c.HandleError(ctx, err, "Warning check failed", 0)
	}
	if raised == nil {
		raised = []warning.Warning{}
	}
	return ctx.JSON(http.StatusOK, CheckResponse{Count: len(raised), Warnings: raised})
}

// ResolveWarning handles POST /api/v2/warnings/:id/resolve
func (c *Controller) ResolveWarning(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err, "Invalid warning id")
	}
	if err := c.Warnings.Resolve(id); err != nil {
		return c.HandleError(ctx, err, "Failed to resolve warning", 0)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"id": id, "status": datastore.WarningResolved})
}
