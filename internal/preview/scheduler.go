package preview

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// recheckScheduler wraps gocron for the periodic structural recheck.
type recheckScheduler struct {
	scheduler gocron.Scheduler
}

func newRecheckScheduler(interval time.Duration, task func()) (*recheckScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("structural-recheck"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("create recheck job: %w", err)
	}
	return &recheckScheduler{scheduler: s}, nil
}

func (s *recheckScheduler) Start() { s.scheduler.Start() }

func (s *recheckScheduler) Shutdown() error { return s.scheduler.Shutdown() }
