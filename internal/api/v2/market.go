package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/market"
)

// MarketDataRequest is a market observation with optional review text used
// to compute its sentiment.
type MarketDataRequest struct {
	datastore.MarketData
	Reviews string `json:"reviews"`
}

func (c *Controller) initMarketRoutes() {
	g := c.Group.Group("/market")
	g.GET("/analysis", c.GetMarketAnalysis)
	g.POST("/data", c.PostMarketData)
	g.GET("/brand", c.GetBrandContent)
}

// GetMarketAnalysis handles GET /api/v2/market/analysis
func (c *Controller) GetMarketAnalysis(ctx echo.Context) error {
	days, err := intParam(ctx, "days", market.DefaultReportDays, maxDays)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid days parameter")
	}
	report, err := cachedReport(ctx.Request().Context(), c, fmt.Sprintf("%s%d", marketKeyPrefix, days), func(rctx context.Context) (*market.Report, error) {
		return c.Market.Report(rctx, days)
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build market report", 0)
	}
	return ctx.JSON(http.StatusOK, report)
}

// PostMarketData handles POST /api/v2/market/data
func (c *Controller) PostMarketData(ctx echo.Context) error {
	var req MarketDataRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	if req.ProductName == "" || req.Platform == "" {
		return c.badRequest(ctx, nil, "product_name and platform are required")
	}
	if req.Price < 0 || req.SalesVolume < 0 || req.Rating < 0 || req.Rating > 5 {
		return c.badRequest(ctx, nil, "price and sales_volume must not be negative, rating must be within 0-5")
	}

	data := req.MarketData
	data.ID = 0
	if data.Timestamp.IsZero() {
		data.Timestamp = c.now()
	}
	if err := c.Market.Record(&data, req.Reviews); err != nil {
		return c.HandleError(ctx, err, "Failed to save market data", 0)
	}
	c.invalidateReports(marketKeyPrefix)
	return ctx.JSON(http.StatusCreated, data)
}

// GetBrandContent handles GET /api/v2/market/brand
func (c *Controller) GetBrandContent(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, market.NewBrandContent(ctx.QueryParam("brand"), ctx.QueryParam("variety")))
}
