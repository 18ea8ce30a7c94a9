package publication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// UpdateStatus moves a publication along its lifecycle.
//
// Publishing re-checks that the creation version is still approved, then
// records the pair in the day-bucket index. Requesting published again for a
// published row skips the status write and re-runs the index write, which is
// how a caller repairs a failed index write. Leaving published repoints the
// index row to the highest version still published, if any; otherwise the
// row goes stale until the sync pipeline retracts it.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Publication, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	p, err := s.publications.Get(ctx, input.Key)
	if err != nil {
		return nil, fmt.Errorf("get publication: %w", err)
	}
	if p.Status == input.Status {
		if p.Status == domain.PublicationPublished {
			if err := s.indexPublished(ctx, p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	if p.UpdatedAt != input.UpdatedAt {
		return nil, fmt.Errorf("publication %s changed since read: %w", p.Key(), domain.ErrVersionConflict)
	}
	if !p.Status.CanTransitionTo(input.Status) {
		return nil, domain.NewTransitionError("publication", int8(p.Status), int8(input.Status))
	}

	if input.Status == domain.PublicationPublished {
		c, err := s.creations.Get(ctx, p.GID, p.CID, "status", "approved_version")
		if err != nil {
			return nil, fmt.Errorf("get creation: %w", err)
		}
		if !c.VersionApproved(p.Version) {
			return nil, &domain.TransitionError{
				Entity: "publication", From: int8(p.Status), To: int8(input.Status),
				Reason: fmt.Sprintf("creation version %d is no longer approved", p.Version),
			}
		}
	}

	was := p.Status
	set := colmap.Columns{
		"status":     input.Status,
		"updated_at": domain.NextUpdatedAt(p.UpdatedAt, s.now()),
	}
	if err := s.publications.Update(ctx, p.Key(), set, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update publication status: %w", err)
	}
	if err := colmap.Fill(p, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "publication status changed",
		slog.String("key", p.Key().String()),
		slog.String("from", was.String()),
		slog.String("status", p.Status.String()),
	)

	switch {
	case p.Status == domain.PublicationPublished:
		if err := s.indexPublished(ctx, p); err != nil {
			return nil, err
		}
	case was == domain.PublicationPublished:
		s.repointIndex(ctx, p)
	}
	return p, nil
}

// indexPublished writes the index row of a published publication, retrying
// while the store is unavailable.
func (s *Service) indexPublished(ctx context.Context, p *domain.Publication) error {
	now := s.now()
	entry := domain.PubIndexEntry{
		Day:       domain.DayOf(now),
		CID:       p.CID,
		Language:  p.Language,
		GID:       p.GID,
		Version:   p.Version,
		Original:  p.IsOriginal(),
		UpdatedAt: now.UnixMilli(),
	}

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	var stored *domain.PubIndexEntry
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		stored, err = s.index.Upsert(ctx, entry)
		if errors.Is(err, domain.ErrDependencyUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.log.ErrorContext(ctx, "index write after publish failed",
			slog.String("key", p.Key().String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("index publication %s: %w", p.Key(), err)
	}

	s.log.DebugContext(ctx, "publication indexed",
		slog.String("key", p.Key().String()),
		slog.String("day", stored.Day.String()),
		slog.Int("index_version", int(stored.Version)),
	)
	return nil
}

// repointIndex moves the index row of an unpublished pair to the highest
// version still published. Failures only leave the row stale, which readers
// filter and the sync pipeline repairs, so they are logged and dropped.
func (s *Service) repointIndex(ctx context.Context, p *domain.Publication) {
	log := s.log.With(slog.String("key", p.Key().String()))

	versions, err := s.publications.ListVersions(ctx, p.GID, p.CID, p.Language, "status", "model", "from_language")
	if err != nil {
		log.WarnContext(ctx, "list versions for index repoint", slog.String("error", err.Error()))
		return
	}
	best := domain.LatestPublished(versions)
	if best == nil {
		log.DebugContext(ctx, "no published version left, index row left stale")
		return
	}

	entry, err := s.index.Get(ctx, p.CID, p.Language)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.indexPublished(ctx, best); err != nil {
			log.WarnContext(ctx, "reindex remaining version", slog.String("error", err.Error()))
		}
		return
	}
	if err != nil {
		log.WarnContext(ctx, "get index row", slog.String("error", err.Error()))
		return
	}
	if entry.Version == best.Version {
		return
	}
	if err := s.index.SetVersion(ctx, entry.Day, p.CID, p.Language, best.Version, s.now().UnixMilli()); err != nil {
		log.WarnContext(ctx, "repoint index row", slog.String("error", err.Error()))
		return
	}
	log.InfoContext(ctx, "index row repointed", slog.Int("version", int(best.Version)))
}
