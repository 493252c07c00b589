package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/database"
	"github.com/deppfellow/microchip-api/internal/handler"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/router"
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var migrateOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply database migrations before serving (postgres driver)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrateOnStart && a.cfg.Storage.Driver == config.DriverPostgres {
		if err := database.Migrate(ctx, a.log, a.cfg); err != nil {
			a.log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(a.cfg, a.log, a.loggerService)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	if err := srv.StartJobs(); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		_ = srv.Shutdown(context.Background())
		if err != nil {
			a.log.Error().Err(err).Msg("server stopped")
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	if err := <-serveErr; err != nil {
		return err
	}

	a.log.Info().Msg("server exited")
	return nil
}
