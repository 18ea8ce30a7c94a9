package pubsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/heartmarshall/writing/internal/domain"
)

const nextTickRetry = 30 * time.Second

type runner interface {
	RunDays(ctx context.Context, days []domain.Day) (Result, error)
}

// Scheduler runs a pass on a cron schedule over the last lookback days, today
// included, plus every bucket a previous pass deferred.
type Scheduler struct {
	passes   runner
	cron     string
	lookback int
	now      func() time.Time
	log      *slog.Logger

	mu      sync.Mutex
	pending map[domain.Day]struct{}
	ready   bool
}

// NewScheduler creates a scheduler for svc.
func NewScheduler(log *slog.Logger, svc runner, cron string, lookbackDays int) *Scheduler {
	return &Scheduler{
		passes:   svc,
		cron:     cron,
		lookback: lookbackDays,
		now:      time.Now,
		log:      log.With("component", "pubsync_scheduler"),
		pending:  map[domain.Day]struct{}{},
	}
}

// Run blocks until ctx is done, running a pass at every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "scheduler started", slog.String("cron", s.cron), slog.Int("lookback_days", s.lookback))
	for {
		next, err := gronx.NextTickAfter(s.cron, s.now(), false)
		if err != nil {
			s.log.ErrorContext(ctx, "next tick", slog.String("cron", s.cron), slog.String("error", err.Error()))
			next = s.now().Add(nextTickRetry)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.InfoContext(ctx, "scheduler stopped")
			return nil
		case <-timer.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass now.
func (s *Scheduler) Tick(ctx context.Context) Result {
	days := s.days()
	res, err := s.passes.RunDays(ctx, days)
	if err != nil {
		s.log.ErrorContext(ctx, "sync pass had failures", slog.String("run_id", res.RunID), slog.String("error", err.Error()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range res.Synced {
		delete(s.pending, b.Day)
	}
	for _, d := range res.Deferred {
		s.pending[d] = struct{}{}
	}
	s.ready = true
	return res
}

// Ready reports whether at least one pass has completed.
func (s *Scheduler) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Pending returns the deferred buckets waiting for the next pass.
func (s *Scheduler) Pending() []domain.Day {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Day, 0, len(s.pending))
	for d := range s.pending {
		out = append(out, d)
	}
	return out
}

func (s *Scheduler) days() []domain.Day {
	today := domain.DayOf(s.now())
	first := today - domain.Day(max(s.lookback, 1)-1)
	days := domain.DayRange(first, today)

	s.mu.Lock()
	defer s.mu.Unlock()
	for d := range s.pending {
		if d < first || d > today {
			days = append(days, d)
		}
	}
	return days
}
