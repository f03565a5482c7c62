package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// contextKey is a private type for echo context keys set by this
// package.
type contextKey string

// Site context keys.
const (
	// ContextKeyTenantID is the context key for the resolved tenant ID.
	ContextKeyTenantID contextKey = "tenant_id"

	// ContextKeySiteID is the context key for the resolved site ID.
	ContextKeySiteID contextKey = "site_id"
)

// SiteKeyHeader carries the widget's public site key on every
// visitor-facing request.
const SiteKeyHeader = "X-Site-Key"

// Site errors.
var (
	ErrSiteKeyRequired = errors.New("site key is required")
	ErrSiteNotFound    = errors.New("site not found")
)

// SiteBinding is the tenant/site pair a site key resolves to.
type SiteBinding struct {
	TenantID uuid.UUID
	SiteID   uuid.UUID
}

// SiteResolver resolves a public site key to its tenant and site.
type SiteResolver interface {
	// ResolveSite returns the binding for a site key, or
	// ErrSiteNotFound when the key is unknown.
	ResolveSite(ctx context.Context, siteKey string) (*SiteBinding, error)
}

// SiteResolverFunc adapts a function to the SiteResolver interface.
type SiteResolverFunc func(ctx context.Context, siteKey string) (*SiteBinding, error)

// ResolveSite implements SiteResolver.
func (f SiteResolverFunc) ResolveSite(ctx context.Context, siteKey string) (*SiteBinding, error) {
	return f(ctx, siteKey)
}

// SiteConfig holds configuration for the site scoping middleware.
type SiteConfig struct {
	// Logger is the structured logger for site resolution events.
	Logger *slog.Logger

	// Resolver resolves site keys.
	Resolver SiteResolver
}

// SiteScope returns a middleware that resolves the X-Site-Key header
// and stores the tenant and site IDs in the request context. Requests
// without a valid site key are rejected before reaching the handler.
func SiteScope(config SiteConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			siteKey := c.Request().Header.Get(SiteKeyHeader)
			if siteKey == "" {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"success": false,
					"error": map[string]string{
						"code":    "SITE_KEY_REQUIRED",
						"message": "The X-Site-Key header is required",
					},
				})
			}

			binding, err := config.Resolver.ResolveSite(c.Request().Context(), siteKey)
			if err != nil {
				if errors.Is(err, ErrSiteNotFound) {
					return c.JSON(http.StatusForbidden, map[string]any{
						"success": false,
						"error": map[string]string{
							"code":    "SITE_NOT_FOUND",
							"message": "Unknown site key",
						},
					})
				}

				config.Logger.ErrorContext(c.Request().Context(), "site resolution failed",
					slog.String("error", err.Error()),
				)
				return c.JSON(http.StatusInternalServerError, map[string]any{
					"success": false,
					"error": map[string]string{
						"code":    "INTERNAL_ERROR",
						"message": "An internal error occurred",
					},
				})
			}

			c.Set(string(ContextKeyTenantID), binding.TenantID)
			c.Set(string(ContextKeySiteID), binding.SiteID)

			return next(c)
		}
	}
}

// GetTenantID retrieves the resolved tenant ID from the echo context.
func GetTenantID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(string(ContextKeyTenantID)).(uuid.UUID); ok {
		return id
	}
	return ""
}

// GetSiteID retrieves the resolved site ID from the echo context.
func GetSiteID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(string(ContextKeySiteID)).(uuid.UUID); ok {
		return id
	}
	return ""
}
