package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/middleware"
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	microchipService *service.MicrochipService
}

func NewHealthHandler(s *server.Server, microchipService *service.MicrochipService) *HealthHandler {
	return &HealthHandler{
		Handler:          NewHandler(s),
		microchipService: microchipService,
	}
}

type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// checks lists the configured checks whose dependency exists. Storage is
// always present; database and redis only when the configuration opened
// them.
func (h *HealthHandler) checks() []healthCheck {
	cfg := h.server.Config.Observability.HealthChecks

	var checks []healthCheck
	if cfg.HasCheck("storage") {
		checks = append(checks, healthCheck{name: "storage", ping: h.microchipService.Ping})
	}
	if cfg.HasCheck("database") && h.server.DB != nil {
		checks = append(checks, healthCheck{name: "database", ping: h.server.DB.Pool.Ping})
	}
	if cfg.HasCheck("redis") && h.server.Redis != nil {
		checks = append(checks, healthCheck{name: "redis", ping: func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

// CheckHealth answers 200 when every check passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"storage":     h.server.Config.Storage.Driver,
		"checks":      checks,
	}

	isHealthy := true
	if cfg.Enabled {
		for _, check := range h.checks() {
			ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
			checkStart := time.Now()
			err := check.ping(ctx)
			cancel()

			if err != nil {
				isHealthy = false
				checks[check.name] = map[string]any{
					"status":        "unhealthy",
					"response_time": time.Since(checkStart).String(),
					"error":         err.Error(),
				}

				logger.Error().
					Err(err).
					Str("check", check.name).
					Dur("response_time", time.Since(checkStart)).
					Msg("health check failed")

				h.recordHealthCheckError(check.name, time.Since(checkStart), err)
				continue
			}

			checks[check.name] = map[string]any{
				"status":        "healthy",
				"response_time": time.Since(checkStart).String(),
			}
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("service unhealthy")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}

func (h *HealthHandler) recordHealthCheckError(checkType string, elapsed time.Duration, err error) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       checkType,
		"operation":        "health_check",
		"error_type":       checkType + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
