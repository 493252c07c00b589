package handler

import (
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Microchip *MicrochipHandler
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Microchip: NewMicrochipHandler(s, services.Microchip),
		Health:    NewHealthHandler(s, services.Microchip),
		OpenAPI:   NewOpenAPIHandler(s),
	}
}
