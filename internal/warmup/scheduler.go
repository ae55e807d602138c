// Package warmup maintains the daily send budget for verified domains. A
// single background sweep advances each domain's warmup day across calendar
// boundaries, recomputes its limit from the ramp schedule, and resets the
// sent counter exactly once per day.
package warmup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/domain"
	"github.com/ignite/domain-manager/internal/pkg/distlock"
	"github.com/ignite/domain-manager/internal/pkg/logger"
)

// Store is the registry surface the scheduler needs.
type Store interface {
	ListVerified(ctx context.Context) ([]*domain.Domain, error)
	ResetSentToday(ctx context.Context, id uuid.UUID, boundary string) (bool, error)
	AdvanceWarmup(ctx context.Context, id uuid.UUID, newDay, newLimit int, boundary string) (bool, error)
	PauseWarmup(ctx context.Context, id uuid.UUID) error
}

// Options configures a Scheduler.
type Options struct {
	Interval       time.Duration // sweep interval, default 1h
	MaxDay         int           // warmup day ceiling, default 30
	Location       *time.Location
	PauseThreshold float64  // bounce rate at which warmup is paused, default 0.05
	Ramp           RampFunc // defaults to DefaultRamp
	Now            func() time.Time
}

// Scheduler runs the periodic warmup sweep. Sweeps never overlap: a tick
// that fires while the previous sweep is still running is skipped.
type Scheduler struct {
	store Store
	locks *distlock.Factory
	opts  Options

	sweeping int32
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a warmup scheduler. locks may be nil when running a
// single instance.
func NewScheduler(store Store, locks *distlock.Factory, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.MaxDay <= 0 {
		opts.MaxDay = 30
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PauseThreshold <= 0 {
		opts.PauseThreshold = 0.05
	}
	if opts.Ramp == nil {
		opts.Ramp = DefaultRamp
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{store: store, locks: locks, opts: opts}
}

// Start launches the sweep loop. An initial sweep runs immediately so a
// restarted instance catches up on a missed boundary without waiting a full
// interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.Sweep(ctx)

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop cancels the sweep loop and waits for an in-progress sweep to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Sweep runs one pass over every verified domain. It is safe to call
// directly; concurrent calls beyond the first are dropped.
func (s *Scheduler) Sweep(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.sweeping, 0, 1) {
		logger.Debug("warmup sweep still running, skipping tick")
		return
	}
	defer atomic.StoreInt32(&s.sweeping, 0)

	if s.locks != nil {
		lock := s.locks.Lock("warmup:sweep")
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("warmup sweep lock unavailable, proceeding locally", "error", err.Error())
		} else if !acquired {
			logger.Debug("warmup sweep held by another instance, skipping")
			return
		} else {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	boundary := s.opts.Now().In(s.opts.Location).Format("2006-01-02")

	domains, err := s.store.ListVerified(ctx)
	if err != nil {
		logger.Error("warmup sweep failed to list domains", "error", err.Error())
		return
	}

	var advanced, resets int
	for _, d := range domains {
		if ctx.Err() != nil {
			return
		}

		// The counter reset applies to every verified domain, in or out
		// of warmup. The date guard in the store makes it exactly-once
		// per boundary no matter how many sweeps run today.
		reset, err := s.store.ResetSentToday(ctx, d.ID, boundary)
		if err != nil {
			logger.Error("failed to reset sent counter", "domain", d.Name, "error", err.Error())
			continue
		}
		if reset {
			resets++
		}

		if !d.WarmupEnabled {
			continue
		}

		if d.BounceRate >= s.opts.PauseThreshold {
			if err := s.store.PauseWarmup(ctx, d.ID); err != nil {
				logger.Error("failed to pause warmup", "domain", d.Name, "error", err.Error())
				continue
			}
			logger.Warn("warmup paused on bounce rate",
				"domain", d.Name,
				"bounce_rate", d.BounceRate,
			)
			continue
		}

		newDay := d.WarmupDay + 1
		if newDay > s.opts.MaxDay {
			newDay = s.opts.MaxDay
		}
		ok, err := s.store.AdvanceWarmup(ctx, d.ID, newDay, s.opts.Ramp(newDay), boundary)
		if err != nil {
			logger.Error("failed to advance warmup", "domain", d.Name, "error", err.Error())
			continue
		}
		if ok {
			advanced++
			logger.Info("warmup advanced",
				"domain", d.Name,
				"day", newDay,
				"daily_limit", s.opts.Ramp(newDay),
			)
		}
	}

	logger.Info("warmup sweep completed",
		"domains", len(domains),
		"advanced", advanced,
		"resets", resets,
	)
}
