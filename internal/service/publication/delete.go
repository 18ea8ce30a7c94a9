package publication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/writing/internal/domain"
)

// Delete soft-deletes a rejected publication. Deleting an absent one
// returns false.
func (s *Service) Delete(ctx context.Context, k domain.PublicationKey) (bool, error) {
	p, err := s.publications.Get(ctx, k, "status")
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get publication: %w", err)
	}
	if p.Status != domain.PublicationRejected {
		return false, &domain.TransitionError{
			Entity: "publication", From: int8(p.Status), To: int8(domain.PublicationRejected),
			Reason: "only rejected publications can be deleted",
		}
	}

	moved, err := s.publications.Archive(ctx, k)
	if err != nil {
		return false, fmt.Errorf("delete publication: %w", err)
	}
	if moved {
		s.log.InfoContext(ctx, "publication deleted", slog.String("key", k.String()))
	}
	return moved, nil
}

// GetDeleted returns a soft-deleted publication while it is retained.
func (s *Service) GetDeleted(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	return s.publications.GetDeleted(ctx, k)
}

// Restore brings a soft-deleted publication back in its stored status. The
// creation must still exist, and a published publication needs its version
// still approved; it is indexed again once restored.
func (s *Service) Restore(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	d, err := s.publications.GetDeleted(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("get deleted publication: %w", err)
	}
	c, err := s.creations.Get(ctx, k.GID, k.CID, "status", "approved_version")
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if d.Status == domain.PublicationPublished && !c.VersionApproved(d.Version) {
		return nil, &domain.TransitionError{
			Entity: "publication", From: int8(d.Status), To: int8(d.Status),
			Reason: fmt.Sprintf("creation version %d is no longer approved", d.Version),
		}
	}

	p, err := s.publications.Restore(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("restore publication: %w", err)
	}
	s.log.InfoContext(ctx, "publication restored",
		slog.String("key", k.String()),
		slog.String("status", p.Status.String()),
	)

	if p.Status == domain.PublicationPublished {
		if err := s.indexPublished(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
