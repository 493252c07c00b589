package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/handler"
)

// registerSystemRoutes registers the routes outside the API: health,
// docs page and its static assets.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, staticDir string) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", staticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI())
}
