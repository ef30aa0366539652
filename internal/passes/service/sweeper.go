package service

import (
	"context"
	"sync"
	"time"

	"visitorpass/internal/passes/events"
	"visitorpass/internal/passes/repository"
	"visitorpass/pkg/clock"
	"visitorpass/pkg/logger"
)

const DefaultSweepInterval = time.Hour

// Sweeper periodically removes stale passes from the store. It runs as a
// background goroutine between Start and Stop.
type Sweeper struct {
	repo      repository.PassRepository
	clock     clock.Clock
	interval  time.Duration
	retention time.Duration
	publisher events.Publisher
	log       *logger.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type SweeperConfig struct {
	Interval  time.Duration
	Retention time.Duration
	Clock     clock.Clock
	Publisher events.Publisher
}

// NewSweeper creates a sweeper but does not start it.
func NewSweeper(repo repository.PassRepository, cfg SweeperConfig, log *logger.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NewNoopPublisher()
	}

	return &Sweeper{
		repo:      repo,
		clock:     cfg.Clock,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		publisher: cfg.Publisher,
		log:       log,
		done:      make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every interval until ctx is
// cancelled or Stop is called. Calls after the first are ignored.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.loop(ctx)

	s.log.Info("Pass sweeper started",
		"interval", s.interval,
		"retention", s.retention,
	)
}

// Stop cancels the loop and waits for an in-flight sweep to finish. It is
// safe to call more than once and before Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started, cancel := s.started, s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-s.done
	s.log.Info("Pass sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and returns the number of passes removed.
// A panic in the store aborts the sweep and returns zero; entries deleted
// before the panic are not counted.
func (s *Sweeper) SweepOnce(ctx context.Context) (removed int) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("Pass sweep aborted", "panic", rec)
			removed = 0
		}
	}()

	now := s.clock.Now()
	removed = s.repo.Sweep(now, s.retention)

	s.log.Info("Pass sweep completed",
		"removed", removed,
		"remaining", s.repo.Count(),
	)
	if removed > 0 {
		s.publisher.PassesSwept(ctx, removed, now)
	}
	return removed
}
