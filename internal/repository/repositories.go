package repository

import (
	"fmt"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/server"
)

// Repositories groups every repository the services depend on.
type Repositories struct {
	Microchip MicrochipRepository
}

// NewRepositories picks the microchip storage driver from config. The
// redis and postgres drivers reuse the connections owned by the server.
func NewRepositories(s *server.Server) (*Repositories, error) {
	storage := s.Config.Storage

	var microchips MicrochipRepository
	switch storage.Driver {
	case config.DriverFile:
		microchips = NewFileMicrochipRepository(storage.FilePath)
	case config.DriverRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("redis storage driver selected but no redis client is configured")
		}
		microchips = NewRedisMicrochipRepository(s.Redis, storage.RedisKey, storage.MaxRetries)
	case config.DriverPostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("postgres storage driver selected but no database is configured")
		}
		microchips = NewPostgresMicrochipRepository(s.DB.Pool, storage.Collection)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}

	s.Logger.Info().
		Str("driver", storage.Driver).
		Msg("microchip repository initialized")

	return &Repositories{Microchip: microchips}, nil
}
