package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const (
	defaultDays  = 7
	maxDays      = 366
	defaultLimit = 50
	maxLimit     = 1000
)

// intParam parses an optional positive integer query parameter.
func intParam(ctx echo.Context, name string, def, maxValue int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.Newf("%s must be a positive integer", name).
			Component("api").
			Category(errors.CategoryValidation).
			Context("value", raw).
			Build()
	}
	return min(v, maxValue), nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(ctx echo.Context, name string) (bool, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Newf("%s must be true or false", name).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return v, nil
}

// dateParam parses an optional YYYY-MM-DD query parameter in loc.
func dateParam(ctx echo.Context, name string, loc *time.Location) (*time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, errors.Newf("%s must be a date in YYYY-MM-DD format", name).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return &t, nil
}

// idParam parses a numeric path parameter.
func idParam(ctx echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, errors.Newf("invalid %s", name).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(v), nil
}
