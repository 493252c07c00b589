package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/handler"
)

// registerMicrochipRoutes registers the collection routes on api. The
// collection itself answers both with and without a trailing slash;
// /volt is a static route and wins over /:id.
func registerMicrochipRoutes(api *echo.Group, h *handler.Handlers) {
	m := h.Microchip

	getAll := handler.Handle(m.Handler, m.GetAll, http.StatusOK, &handler.ListMicrochipsRequest{})
	create := handler.Handle(m.Handler, m.Create, http.StatusCreated, &handler.CreateMicrochipsRequest{})
	replace := handler.Handle(m.Handler, m.ReplaceFrameType, http.StatusOK, &handler.ReplaceFrameTypeRequest{})

	for _, root := range []string{"", "/"} {
		api.GET(root, getAll)
		api.POST(root, create)
		api.PUT(root, replace)
	}

	api.GET("/volt", handler.Handle(m.Handler, m.CountByVoltage, http.StatusOK, &handler.CountByVoltageRequest{}))
	api.GET("/:id", handler.Handle(m.Handler, m.GetByID, http.StatusOK, &handler.MicrochipIDRequest{}))
	api.DELETE("/:id", handler.HandleNoContent(m.Handler, m.Delete, http.StatusNoContent, &handler.MicrochipIDRequest{}))
}
