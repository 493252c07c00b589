package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "microchip",
	Short: "Microchip collection HTTP API",
	Long: "Serves CRUD operations over a single collection of microchip records.\n" +
		"Configuration is read from MICROCHIP_* environment variables and .env.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd)
}

// app is what every command needs before doing its own work.
type app struct {
	cfg           *config.Config
	log           *zerolog.Logger
	loggerService *logger.LoggerService
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return nil, err
	}

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return &app{
		cfg:           cfg,
		log:           &log,
		loggerService: loggerService,
	}, nil
}
