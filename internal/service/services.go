package service

import (
	"github.com/deppfellow/microchip-api/internal/lib/job"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/server"
)

type Services struct {
	Microchip *MicrochipService
	Job       *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	// keep the interface nil, not a typed nil, when jobs are disabled
	var notifier ChangeNotifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Microchip: NewMicrochipService(s, repos.Microchip, notifier),
		Job:       s.Job,
	}, nil
}
