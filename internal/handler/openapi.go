package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/server"
)

// OpenAPIHandler serves the API documentation page. The page itself loads
// /static/openapi.json.
type OpenAPIHandler struct {
	Handler
	staticDir string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler:   NewHandler(s),
		staticDir: s.Config.Server.StaticDir,
	}
}

// DocsRequest has no parameters.
type DocsRequest struct{}

func (r *DocsRequest) Validate() error {
	return nil
}

func (h *OpenAPIHandler) ReadUI(c echo.Context, _ *DocsRequest) ([]byte, error) {
	page, err := os.ReadFile(filepath.Join(h.staticDir, "openapi.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}
	return page, nil
}

// ServeOpenAPIUI returns the docs page uncached.
func (h *OpenAPIHandler) ServeOpenAPIUI() echo.HandlerFunc {
	return HandleFile(h.Handler, h.ReadUI, http.StatusOK, &DocsRequest{}, echo.MIMETextHTMLCharsetUTF8)
}
