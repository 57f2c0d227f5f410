package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an error body with a fresh correlation ID.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
	}
	return &ErrorResponse{
		Error:         errorMsg,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// StatusCode maps an error category to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes the error envelope. A zero code is
// derived from the error category.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	if code == 0 {
		code = StatusCode(err)
	}
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// badRequest answers 400 for malformed input.
func (c *Controller) badRequest(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, http.StatusBadRequest)
}
