// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

const defaultSweepInterval = 10 * time.Minute

// Sweeper is a cache whose expired entries can be dropped
type Sweeper interface {
	Name() string
	Sweep() int
	Len() int
}

// Scheduler periodically sweeps expired entries out of the provider caches.
type Scheduler struct {
	scheduler *gocron.Scheduler
	caches    []Sweeper
	interval  time.Duration
	log       *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(interval time.Duration, caches ...Sweeper) *Scheduler {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		caches:    caches,
		interval:  interval,
		log:       logger.Named("scheduler"),
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
// The first sweep runs one interval after Start.
func (s *Scheduler) Start() error {
	if len(s.caches) == 0 {
		s.log.Info("no caches registered; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.Sweep()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Infow("cache sweep scheduled", "interval", s.interval, "caches", len(s.caches))
	return nil
}

// Sweep drops expired entries from every cache and returns the total removed
func (s *Scheduler) Sweep() int {
	total := 0
	for _, c := range s.caches {
		removed := c.Sweep()
		total += removed
		if removed > 0 {
			s.log.Debugw("swept cache", "cache", c.Name(), "removed", removed, "remaining", c.Len())
		}
	}
	return total
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
