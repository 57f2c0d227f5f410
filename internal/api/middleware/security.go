package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// apiCSP forbids everything; the server only returns JSON and metrics.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// NewCORS allows cross-origin reads and writes of the JSON API from origins.
// Credentials are only allowed for an explicit origin list, since browsers
// reject them together with "*".
func NewCORS(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: !slices.Contains(origins, "*"),
	})
}

// NewSecureHeaders sets the response headers for a JSON-only server. HSTS is
// left to a TLS-terminating proxy.
func NewSecureHeaders() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: apiCSP,
		ReferrerPolicy:        "no-referrer",
	})
}

// NewBodyLimit rejects request bodies larger than limit, e.g. "16M".
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
