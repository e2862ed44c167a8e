package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"launchpad/internal/tasks"
)

// PurgeSpec runs the expired token purge daily at 03:00.
const PurgeSpec = "0 0 3 * * *"

type Enqueuer interface {
	Enqueue(ctx context.Context, task tasks.Task) (string, error)
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	log   zerolog.Logger
}

func NewScheduler(queue Enqueuer, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: queue,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(PurgeSpec, s.enqueuePurge); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueuePurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, tasks.NewPurgeExpiredTokens())
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue token purge failed")
		return
	}
	s.log.Debug().Str("message_id", id).Msg("token purge enqueued")
}
