package publication

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/writing/internal/domain"
)

// maxScanDays bounds how far back ListPublished walks when buckets are sparse.
const maxScanDays = 90

// ListPublished returns up to limit publications that are currently
// published, newest bucket first, starting at day and walking backwards.
// Index rows whose publication is no longer published at the indexed
// version are skipped.
func (s *Service) ListPublished(ctx context.Context, day domain.Day, limit int) ([]domain.Publication, error) {
	if limit <= 0 {
		return nil, domain.NewValidationError("limit", "must be positive")
	}

	var out []domain.Publication
	for d := day; d > day-maxScanDays && len(out) < limit; d-- {
		entries, err := s.index.ListByDay(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("list index %s: %w", d, err)
		}
		for _, e := range entries {
			p, err := s.publications.Get(ctx, domain.PublicationKey{GID: e.GID, CID: e.CID, Language: e.Language, Version: e.Version})
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get publication: %w", err)
			}
			if p.Status != domain.PublicationPublished {
				continue
			}
			out = append(out, *p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
