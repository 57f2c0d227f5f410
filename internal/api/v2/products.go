package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/traceability"
)

// CreateProductResponse returns the new product ID with its QR payload.
type CreateProductResponse struct {
	ProductID string                 `json:"product_id"`
	QRCode    string                 `json:"qr_code"`
	QRPayload traceability.QRPayload `json:"qr_payload"`
}

func (c *Controller) initProductRoutes() {
	g := c.Group.Group("/products")
	g.GET("", c.SearchProducts)
	g.POST("", c.CreateProduct)
	g.GET("/:id", c.GetProduct)
	g.GET("/:id/report", c.GetProductReport)
	g.POST("/:id/records/:kind", c.AddProductRecord)
}

// CreateProduct handles POST /api/v2/products
func (c *Controller) CreateProduct(ctx echo.Context) error {
	var info traceability.ProductInfo
	if err := ctx.Bind(&info); err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	if info.Location == "" {
		info.Location = c.Settings.Main.Location
	}
	id, err := c.Trace.CreateProduct(info)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create product", 0)
	}
	p, err := c.Trace.GetTraceInfo(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load product", 0)
	}
	return ctx.JSON(http.StatusCreated, CreateProductResponse{
		ProductID: id,
		QRCode:    p.QRCode,
		QRPayload: c.Trace.QRPayload(id),
	})
}

// GetProduct handles GET /api/v2/products/:id
func (c *Controller) GetProduct(ctx echo.Context) error {
	p, err := c.Trace.GetTraceInfo(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Product not found", 0)
	}
	return ctx.JSON(http.StatusOK, p)
}

// GetProductReport handles GET /api/v2/products/:id/report
func (c *Controller) GetProductReport(ctx echo.Context) error {
	report, err := c.Trace.TraceReport(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build trace report", 0)
	}
	return ctx.JSON(http.StatusOK, report)
}

// AddProductRecord handles POST /api/v2/products/:id/records/:kind
func (c *Controller) AddProductRecord(ctx echo.Context) error {
	id := ctx.Param("id")
	kind := ctx.Param("kind")
	if !traceability.IsRecordKind(kind) {
		return c.badRequest(ctx, nil, "Unknown record kind "+kind)
	}

	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	if err := c.Trace.AddRecordJSON(id, kind, body); err != nil {
		return c.HandleError(ctx, err, "Failed to add "+kind+" record", 0)
	}
	return ctx.JSON(http.StatusCreated, map[string]string{"product_id": id, "kind": kind})
}

// SearchProducts handles GET /api/v2/products
func (c *Controller) SearchProducts(ctx echo.Context) error {
	loc := c.Settings.Location()
	start, err := dateParam(ctx, "start", loc)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid start date")
	}
	end, err := dateParam(ctx, "end", loc)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid end date")
	}
	if end != nil {
		e := end.AddDate(0, 0, 1).Add(-1)
		end = &e
	}
	limit, err := intParam(ctx, "limit", defaultLimit, maxLimit)
	if err != nil {
		return c.badRequest(ctx, err, "Invalid limit parameter")
	}

	results, err := c.Trace.SearchProducts(datastore.ProductFilter{
		ProductID: ctx.QueryParam("product_id"),
		Location:  ctx.QueryParam("location"),
		Start:     start,
		End:       end,
		Limit:     limit,
	})
	if err != nil {
		return c.HandleError(ctx, err, "Product search failed", 0)
	}
	if results == nil {
		results = []traceability.ProductSummary{}
	}
	return ctx.JSON(http.StatusOK, results)
}
