// Package router builds the Echo instance: global middleware, the error
// handler and every route.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/handler"
	"github.com/deppfellow/microchip-api/internal/middleware"
	"github.com/deppfellow/microchip-api/internal/server"
)

// APIPrefix is the group holding the microchip routes.
const APIPrefix = "/api"

// NewRouter wires middleware and routes.
//
// The request id comes first so every later middleware can log it, and
// the request-scoped logger is built after New Relic so it carries the
// trace ids.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, h, s.Config.Server.StaticDir)
	registerMicrochipRoutes(router.Group(APIPrefix), h)

	return router
}
