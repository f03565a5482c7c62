package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CORS configuration constants.
const (
	// DefaultCORSMaxAge is the preflight cache age (24 hours in
	// seconds). Widget requests come from arbitrary customer sites, so
	// a long cache keeps preflight traffic down.
	DefaultCORSMaxAge = 86400
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	// AllowOrigins defines a list of origins that may access the
	// resource. Use "*" to allow all origins.
	AllowOrigins []string

	// AllowMethods defines the methods allowed on the resource.
	AllowMethods []string

	// AllowHeaders defines the request headers allowed on the actual
	// request.
	AllowHeaders []string

	// AllowCredentials indicates whether requests can include
	// credentials.
	AllowCredentials bool

	// ExposeHeaders defines headers browsers are allowed to access.
	ExposeHeaders []string

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int
}

// DefaultCORSConfig returns a CORSConfig with sensible defaults. The
// embeddable widget runs on customer domains, so origins default open.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET,
			echo.HEAD,
			echo.PUT,
			echo.PATCH,
			echo.POST,
			echo.DELETE,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestID,
			SiteKeyHeader,
		},
		AllowCredentials: false,
		ExposeHeaders:    []string{},
		MaxAge:           DefaultCORSMaxAge,
	}
}

// CORS returns a CORS middleware with the given configuration.
func CORS(config CORSConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     config.AllowOrigins,
		AllowMethods:     config.AllowMethods,
		AllowHeaders:     config.AllowHeaders,
		AllowCredentials: config.AllowCredentials,
		ExposeHeaders:    config.ExposeHeaders,
		MaxAge:           config.MaxAge,
	})
}

// CORSWithOrigins returns a CORS middleware restricted to specific
// origins.
func CORSWithOrigins(origins ...string) echo.MiddlewareFunc {
	config := DefaultCORSConfig()
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return CORS(config)
}
