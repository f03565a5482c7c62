package main

import (
	"github.com/labstack/echo/v4"

	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
	"github.com/atiendo/atiendo/internal/middleware"
)

// SetupRoutes configures all API routes and middleware chains.
func SetupRoutes(c *Container) *httpserver.Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	routerConfig := httpserver.RouterConfig{
		Logger: c.Logger,
		SiteMiddleware: middleware.SiteScope(middleware.SiteConfig{
			Logger:   c.Logger,
			Resolver: c.SiteResolver,
		}),
		CORSConfig:     middleware.DefaultCORSConfig(),
		LoggingConfig:  middleware.DefaultLoggingConfig(),
		RecoveryConfig: middleware.DefaultRecoveryConfig(),
		APIPrefix:      "/api/v1",
	}

	router := httpserver.NewRouter(e, routerConfig)

	// Health and metrics endpoints live outside the API prefix.
	// Container implements httpserver.HealthChecker, so we pass it
	// directly; checks run against the request context.
	router.RegisterHealthEndpointsWithChecker(c)
	router.RegisterMetricsEndpoint()

	// REST handlers register themselves on the widget and agent groups.
	router.RegisterAll(
		c.VisitorHandler,
		c.ChatHandler,
		c.MessageHandler,
	)

	// WebSocket endpoints sit outside the API prefix; the widget and
	// agent console dial them directly.
	c.WSHandler.RegisterRoutes(e)

	// Log all registered routes in debug mode
	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}
