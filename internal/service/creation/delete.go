package creation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

// Delete soft-deletes a draft or archived creation together with all of its
// publications. The publications go first: a crash midway leaves the
// creation live with fewer publications, never publications without a
// creation. Deleting an absent creation returns false.
func (s *Service) Delete(ctx context.Context, gid, id xid.ID) (bool, error) {
	c, err := s.creations.Get(ctx, gid, id, "status")
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get creation: %w", err)
	}
	if !c.Status.Deletable() {
		return false, &domain.TransitionError{
			Entity: "creation", From: int8(c.Status), To: int8(domain.CreationArchived),
			Reason: "only draft or archived creations can be deleted",
		}
	}

	pubs, err := s.publications.ListByCreation(ctx, gid, id, "status")
	if err != nil {
		return false, fmt.Errorf("list publications: %w", err)
	}
	for _, p := range pubs {
		if _, err := s.publications.Archive(ctx, p.Key()); err != nil {
			return false, fmt.Errorf("delete publication %s: %w", p.Key(), err)
		}
	}

	moved, err := s.creations.Archive(ctx, gid, id)
	if err != nil {
		return false, fmt.Errorf("delete creation: %w", err)
	}

	if moved {
		s.log.InfoContext(ctx, "creation deleted",
			slog.String("gid", gid.String()),
			slog.String("id", id.String()),
			slog.Int("publications", len(pubs)),
		)
	}
	return moved, nil
}

// GetDeleted returns a soft-deleted creation while it is retained.
func (s *Service) GetDeleted(ctx context.Context, gid, id xid.ID) (*domain.Creation, error) {
	return s.creations.GetDeleted(ctx, gid, id)
}

// Restore brings a soft-deleted creation back. Its publications stay
// deleted; they can be restored one by one through the publication
// lifecycle.
func (s *Service) Restore(ctx context.Context, gid, id xid.ID) (*domain.Creation, error) {
	c, err := s.creations.Restore(ctx, gid, id)
	if err != nil {
		return nil, fmt.Errorf("restore creation: %w", err)
	}

	s.log.InfoContext(ctx, "creation restored",
		slog.String("gid", gid.String()),
		slog.String("id", id.String()),
	)
	return c, nil
}
