package syncengine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultSyncInterval is how often the scheduler attempts a pass.
const DefaultSyncInterval = 30 * time.Second

// Onliner reports the effective connectivity state. The network
// monitor satisfies this.
type Onliner interface {
	Online() bool
}

// Scheduler drives periodic sync passes while the daemon runs. Passes
// only start when the monitor reports effective-online; the engine's
// single-flight guard absorbs overlap with reconnect-triggered passes.
type Scheduler struct {
	engine   *Engine
	monitor  Onliner
	interval time.Duration
	log      zerolog.Logger
	sched    *gocron.Scheduler
}

// NewScheduler creates a Scheduler.
func NewScheduler(engine *Engine, monitor Onliner, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Scheduler{
		engine:   engine,
		monitor:  monitor,
		interval: interval,
		log:      logger,
	}
}

// Start begins the periodic passes for the given user and returns.
func (s *Scheduler) Start(ctx context.Context, userID string) error {
	s.sched = gocron.NewScheduler(time.UTC)
	_, err := s.sched.Every(s.interval).Do(func() {
		if !s.monitor.Online() {
			return
		}
		res, err := s.engine.SyncAll(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Msg("scheduled sync pass aborted")
			return
		}
		if res.Skipped {
			s.log.Debug().Msg("scheduled sync pass skipped, already running")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.sched.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("sync scheduler started")
	return nil
}

// Stop halts the periodic passes, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	if s.sched != nil {
		s.sched.Stop()
	}
}
