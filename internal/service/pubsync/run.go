package pubsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/writing/internal/domain"
)

// Result summarizes a pass.
type Result struct {
	RunID    string
	Synced   []BucketStats
	Deferred []domain.Day
	Failed   []domain.Day
}

// Upserted returns the number of documents upserted over all buckets.
func (r Result) Upserted() int {
	n := 0
	for _, b := range r.Synced {
		n += b.Upserted
	}
	return n
}

// Retracted returns the number of documents retracted over all buckets.
func (r Result) Retracted() int {
	n := 0
	for _, b := range r.Synced {
		n += b.Retracted
	}
	return n
}

// Run syncs every bucket from..to inclusive.
func (s *Service) Run(ctx context.Context, from, to domain.Day) (Result, error) {
	if to < from {
		return Result{}, domain.NewValidationError("to", "must not be before from")
	}
	return s.RunDays(ctx, domain.DayRange(from, to))
}

// RunDays syncs the given buckets in parallel. A bucket that fails because
// a dependency is unavailable, or that the context cancels, is deferred and
// the others continue. Other failures are listed in Failed and returned
// joined.
func (s *Service) RunDays(ctx context.Context, days []domain.Day) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := s.log.With(slog.String("run_id", res.RunID))
	start := time.Now()
	log.InfoContext(ctx, "sync pass started", slog.Int("buckets", len(days)))

	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, day := range days {
		g.Go(func() error {
			var (
				stats BucketStats
				err   error
			)
			if err = ctx.Err(); err == nil {
				stats, err = s.SyncBucket(ctx, day)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Synced = append(res.Synced, stats)
				s.metrics.buckets.WithLabelValues(outcomeSynced).Inc()
			case deferrable(ctx, err):
				res.Deferred = append(res.Deferred, day)
				s.metrics.buckets.WithLabelValues(outcomeDeferred).Inc()
				log.WarnContext(ctx, "bucket deferred",
					slog.String("day", day.String()),
					slog.String("error", err.Error()),
				)
			default:
				res.Failed = append(res.Failed, day)
				errs = append(errs, fmt.Errorf("bucket %s: %w", day, err))
				s.metrics.buckets.WithLabelValues(outcomeFailed).Inc()
				log.ErrorContext(ctx, "bucket failed",
					slog.String("day", day.String()),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(res.Synced, func(a, b BucketStats) int { return int(b.Day) - int(a.Day) })
	slices.Sort(res.Deferred)
	slices.Reverse(res.Deferred)
	slices.Sort(res.Failed)
	slices.Reverse(res.Failed)

	log.InfoContext(ctx, "sync pass finished",
		slog.Int("synced", len(res.Synced)),
		slog.Int("deferred", len(res.Deferred)),
		slog.Int("failed", len(res.Failed)),
		slog.Int("upserted", res.Upserted()),
		slog.Int("retracted", res.Retracted()),
		slog.Duration("duration", time.Since(start)),
	)
	return res, errors.Join(errs...)
}

func deferrable(ctx context.Context, err error) bool {
	return errors.Is(err, domain.ErrDependencyUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}
