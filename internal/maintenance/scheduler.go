// Package maintenance periodically compacts the global variable store
package maintenance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tliron/commonlog"

	"github.com/phillarmonic/praxis/internal/store"
)

var log = commonlog.GetLogger("praxis.maintenance")

// DefaultInterval is used when no compaction interval is configured
const DefaultInterval = 6 * time.Hour

// Scheduler runs store maintenance in the background
type Scheduler struct {
	store     store.Store
	interval  time.Duration
	scheduler gocron.Scheduler
	runs      atomic.Int64
}

// New creates a scheduler for st. It does nothing until Start is called.
func New(st store.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{store: st, interval: interval}
}

// Start schedules compaction every interval
func (s *Scheduler) Start() error {
	if s.scheduler != nil {
		return fmt.Errorf("maintenance scheduler already started")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if err := s.RunOnce(context.Background()); err != nil {
				log.Errorf("store maintenance failed: %s", err.Error())
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule store maintenance: %w", err)
	}

	log.Debugf("store maintenance job %s runs every %s", job.ID(), s.interval)
	scheduler.Start()
	s.scheduler = scheduler
	return nil
}

// Stop shuts the scheduler down, waiting for a running job
func (s *Scheduler) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	return err
}

// RunOnce compacts the store when it supports compaction and logs its size
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.runs.Add(1)

	if c, ok := s.store.(store.Compactor); ok {
		if err := c.Compact(ctx); err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}
	}

	if p, ok := s.store.(store.StatsProvider); ok {
		stats, err := p.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read store stats: %w", err)
		}
		log.Infof("%s store holds %d variable(s) in %d byte(s)", stats.Backend, stats.Keys, stats.FileBytes)
	}
	return nil
}

// Runs counts completed and attempted maintenance passes
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}
