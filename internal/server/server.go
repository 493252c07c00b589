// Package server defines the Server container that owns the app's shared
// dependencies and the HTTP server lifecycle.
//
// It owns:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool (postgres storage driver only)
//   - redis client (redis storage driver or background jobs)
//   - background job service (asynq)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/database"
	"github.com/deppfellow/microchip-api/internal/lib/job"
	loggerPkg "github.com/deppfellow/microchip-api/internal/logger"
)

// Server is the application container; it is not the HTTP server itself.
// DB, Redis and Job are nil when the configuration does not need them.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client
	Job           *job.JobService

	httpServer *http.Server
}

// RedisPingTimeout bounds the startup Redis ping.
const RedisPingTimeout = 5 * time.Second

// New connects every dependency the configuration asks for.
//
// Unlike optional caches, Redis here is either the storage backend or the
// job broker, so a failed ping aborts startup.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
	}

	if cfg.Storage.Driver == config.DriverPostgres {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		server.DB = db
	}

	if cfg.Redis != nil {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Address,
		})

		if loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			server.closeDependencies()
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		server.Redis = redisClient
		logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}

	if cfg.Jobs.Enabled {
		jobService, err := job.NewJobService(logger, cfg)
		if err != nil {
			server.closeDependencies()
			return nil, err
		}
		server.Job = jobService
	}

	return server, nil
}

// StartJobs starts the asynq workers when jobs are enabled.
func (s *Server) StartJobs() error {
	if s.Job == nil {
		return nil
	}
	return s.Job.Start()
}

// SetupHTTPServer configures the net/http server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("storage", s.Config.Storage.Driver).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases every dependency.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	s.closeDependencies()
	return nil
}

// closeDependencies is also used to unwind a partially built Server.
func (s *Server) closeDependencies() {
	if s.Job != nil {
		s.Job.Stop()
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
	s.LoggerService.Shutdown()
}
