package pubsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/writing/internal/domain"
)

// BucketStats summarizes one synced bucket.
type BucketStats struct {
	Day       domain.Day
	Rows      int
	Upserted  int
	Retracted int
	Repaired  int
}

// SyncBucket reconciles the search engine with every index row of day.
// Documents are written in one upsert call and one delete call. Index rows
// are repaired only after the search write they depend on succeeded, so a
// failed bucket can be redone from scratch.
func (s *Service) SyncBucket(ctx context.Context, day domain.Day) (BucketStats, error) {
	stats := BucketStats{Day: day}
	start := time.Now()
	defer func() { s.metrics.duration.Observe(time.Since(start).Seconds()) }()

	entries, err := s.index.ListByDay(ctx, day)
	if err != nil {
		return stats, fmt.Errorf("list index day %s: %w", day, err)
	}
	stats.Rows = len(entries)
	if len(entries) == 0 {
		return stats, nil
	}

	var upserts, retracts []Decision
	for _, e := range entries {
		versions, err := s.publications.ListVersions(ctx, e.GID, e.CID, e.Language)
		if err != nil {
			return stats, fmt.Errorf("list versions of %s/%s: %w", e.CID, e.Language, err)
		}
		d, err := Derive(e, versions)
		if err != nil {
			return stats, err
		}
		if d.Action == ActionUpsert {
			upserts = append(upserts, d)
		} else {
			retracts = append(retracts, d)
		}
	}

	if len(upserts) > 0 {
		docs := make([]domain.SearchDocument, len(upserts))
		for i, d := range upserts {
			docs[i] = d.Doc
		}
		if err := s.callSearch(ctx, func(ctx context.Context) error { return s.search.Upsert(ctx, docs) }); err != nil {
			return stats, fmt.Errorf("upsert %d documents: %w", len(docs), err)
		}
		stats.Upserted = len(docs)
		s.metrics.documents.WithLabelValues(ActionUpsert.String()).Add(float64(len(docs)))
	}

	if len(retracts) > 0 {
		keys := make([]string, len(retracts))
		for i, d := range retracts {
			keys[i] = d.Key
		}
		if err := s.callSearch(ctx, func(ctx context.Context) error { return s.search.Delete(ctx, keys) }); err != nil {
			return stats, fmt.Errorf("retract %d documents: %w", len(keys), err)
		}
		stats.Retracted = len(keys)
		s.metrics.documents.WithLabelValues(ActionRetract.String()).Add(float64(len(keys)))
	}

	now := s.now().UnixMilli()
	for _, d := range upserts {
		if d.Repair == 0 {
			continue
		}
		if err := s.index.SetVersion(ctx, day, d.Entry.CID, d.Entry.Language, d.Repair, now); err != nil {
			return stats, fmt.Errorf("repoint index %s/%s: %w", d.Entry.CID, d.Entry.Language, err)
		}
		stats.Repaired++
	}
	for _, d := range retracts {
		deleted, err := s.index.Delete(ctx, d.Entry)
		if err != nil {
			return stats, fmt.Errorf("delete index %s/%s: %w", d.Entry.CID, d.Entry.Language, err)
		}
		if !deleted {
			// Rewritten by a publish after it was read; the next pass sees it.
			s.log.InfoContext(ctx, "index row changed during sync",
				slog.String("day", day.String()),
				slog.String("cid", d.Entry.CID.String()),
				slog.String("language", string(d.Entry.Language)),
			)
			continue
		}
		stats.Repaired++
	}
	s.metrics.repairs.Add(float64(stats.Repaired))

	return stats, nil
}

func (s *Service) callSearch(ctx context.Context, call func(context.Context) error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return call(ctx)
}
