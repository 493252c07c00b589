// Package job runs background work on asynq, a Redis backed task queue.
//
// The API enqueues a task after every collection change; the worker side
// of the same service consumes them and writes an audit log line.
package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/microchip-api/internal/config"
)

// JobService holds the asynq client (producer) and server (consumer).
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger
}

// NewJobService builds both halves against the configured Redis.
//
// Audit tasks go to the "default" queue; "low" is kept for bulk imports so
// they cannot starve the request-driven tasks.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) (*JobService, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("job service requires redis config")
	}
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: cfg.Jobs.Concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().
					Str("type", task.Type()).
					Err(err).
					Msg("background task failed")
			}),
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}, nil
}

// Start registers the task handlers and starts the worker goroutines.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCollectionChanged, j.handleCollectionChangedTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}
	return nil
}

// Stop waits for running tasks and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
