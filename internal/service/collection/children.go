package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/writing/internal/domain"
)

// AddChildren appends children after the current last child. Children that
// are already present keep their place and do not count against the size
// limit.
func (s *Service) AddChildren(ctx context.Context, input AddChildrenInput) ([]domain.CollectionChild, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	parent, err := s.collections.Get(ctx, input.Parent, "status")
	if err != nil {
		return nil, fmt.Errorf("get parent collection: %w", err)
	}
	if parent.Status == domain.CollectionArchived {
		return nil, &domain.TransitionError{
			Entity: "collection", From: int8(parent.Status), To: int8(parent.Status),
			Reason: "archived collections take no children",
		}
	}

	existing, err := s.collections.ListChildren(ctx, input.Parent)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	present := make(map[xid.ID]bool, len(existing))
	last := 0.0
	for _, c := range existing {
		present[c.CID] = true
		if c.Ord > last {
			last = c.Ord
		}
	}

	var fresh []xid.ID
	for _, cid := range dedupe(input.Children) {
		if !present[cid] {
			fresh = append(fresh, cid)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	if len(existing)+len(fresh) > s.maxChildren {
		return nil, domain.NewValidationError("children", fmt.Sprintf("a collection holds at most %d children", s.maxChildren))
	}

	if input.Kind == domain.ChildCollection {
		for _, child := range fresh {
			if err := s.checkNesting(ctx, input.Parent, child); err != nil {
				return nil, err
			}
		}
	}

	now := s.now().UnixMilli()
	items := make([]domain.CollectionChild, 0, len(fresh))
	for _, cid := range fresh {
		last += OrdStep
		items = append(items, domain.CollectionChild{
			ID: input.Parent, CID: cid, Kind: input.Kind, GID: input.GID, Ord: last, UpdatedAt: now,
		})
	}
	if err := s.collections.PutChildren(ctx, input.Parent, items); err != nil {
		return nil, fmt.Errorf("put children: %w", err)
	}

	s.log.InfoContext(ctx, "collection children added",
		slog.String("id", input.Parent.String()),
		slog.String("kind", input.Kind.String()),
		slog.Int("count", len(items)),
	)
	return items, nil
}

// checkNesting walks the collections below child, at most maxDepth levels,
// and fails if parent is among them or the walk does not end in time.
func (s *Service) checkNesting(ctx context.Context, parent, child xid.ID) error {
	frontier := []xid.ID{child}
	seen := map[xid.ID]bool{child: true}
	for depth := 1; len(frontier) > 0; depth++ {
		if depth > s.maxDepth {
			return domain.NewValidationError("children", fmt.Sprintf("collections nest at most %d levels deep", s.maxDepth))
		}
		var next []xid.ID
		for _, id := range frontier {
			if id == parent {
				return domain.NewValidationError("children", fmt.Sprintf("adding collection %s would create a cycle", child))
			}
			kids, err := s.collections.ListChildren(ctx, id)
			if err != nil {
				return fmt.Errorf("list children of %s: %w", id, err)
			}
			for _, k := range kids {
				if k.Kind == domain.ChildCollection && !seen[k.CID] {
					seen[k.CID] = true
					next = append(next, k.CID)
				}
			}
		}
		frontier = next
	}
	return nil
}

// MoveChild places a child between two neighbours by writing only its own
// order key. When the neighbours are too close to split, every child of the
// collection is renumbered in one batch instead.
func (s *Service) MoveChild(ctx context.Context, input MoveChildInput) (*domain.CollectionChild, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	kids, err := s.collections.ListChildren(ctx, input.Parent)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	domain.SortChildren(kids)

	from := indexOf(kids, input.Child)
	if from < 0 {
		return nil, fmt.Errorf("child %s of collection %s: %w", input.Child, input.Parent, domain.ErrNotFound)
	}
	moving := kids[from]
	rest := append(kids[:from:from], kids[from+1:]...)

	pos, err := target(rest, input)
	if err != nil {
		return nil, err
	}
	if pos == from {
		return &moving, nil
	}

	now := s.now().UnixMilli()
	ord, ok := between(rest, pos)
	if ok {
		if err := s.collections.SetOrders(ctx, input.Parent, map[xid.ID]float64{moving.CID: ord}, now); err != nil {
			return nil, fmt.Errorf("set child order: %w", err)
		}
		moving.Ord = ord
	} else {
		ordered := make([]domain.CollectionChild, 0, len(kids))
		ordered = append(ordered, rest[:pos]...)
		ordered = append(ordered, moving)
		ordered = append(ordered, rest[pos:]...)
		ords := make(map[xid.ID]float64, len(ordered))
		for i, c := range ordered {
			ords[c.CID] = OrdStep * float64(i+1)
		}
		if err := s.collections.SetOrders(ctx, input.Parent, ords, now); err != nil {
			return nil, fmt.Errorf("renumber children: %w", err)
		}
		moving.Ord = ords[moving.CID]
		s.log.InfoContext(ctx, "collection children renumbered",
			slog.String("id", input.Parent.String()),
			slog.Int("count", len(ordered)),
		)
	}
	moving.UpdatedAt = now
	return &moving, nil
}

// target returns the index in rest the moved child is inserted at.
func target(rest []domain.CollectionChild, input MoveChildInput) (int, error) {
	if input.After.IsNil() {
		b := indexOf(rest, input.Before)
		if b < 0 {
			return 0, fmt.Errorf("child %s of collection %s: %w", input.Before, input.Parent, domain.ErrNotFound)
		}
		return b, nil
	}
	a := indexOf(rest, input.After)
	if a < 0 {
		return 0, fmt.Errorf("child %s of collection %s: %w", input.After, input.Parent, domain.ErrNotFound)
	}
	if !input.Before.IsNil() && indexOf(rest, input.Before) != a+1 {
		return 0, domain.NewValidationError("before", "must directly follow after")
	}
	return a + 1, nil
}

// between returns an order key for position pos of rest, or false when the
// neighbours there are closer than MinOrdGap.
func between(rest []domain.CollectionChild, pos int) (float64, bool) {
	switch {
	case len(rest) == 0:
		return OrdStep, true
	case pos == 0:
		return rest[0].Ord - OrdStep, true
	case pos == len(rest):
		return rest[pos-1].Ord + OrdStep, true
	}
	lo, hi := rest[pos-1].Ord, rest[pos].Ord
	if hi-lo < MinOrdGap {
		return 0, false
	}
	return lo + (hi-lo)/2, true
}

// RemoveChild drops a child. Removing an absent child is a no-op.
func (s *Service) RemoveChild(ctx context.Context, parent, cid xid.ID) error {
	if err := s.collections.RemoveChild(ctx, parent, cid); err != nil {
		return fmt.Errorf("remove child: %w", err)
	}
	s.log.InfoContext(ctx, "collection child removed",
		slog.String("id", parent.String()),
		slog.String("cid", cid.String()),
	)
	return nil
}

// ListChildren returns the children of a collection in order, leaving out
// those that point at nothing visible: a missing creation, a publication
// child with no published version in any language, or a missing or archived
// collection.
func (s *Service) ListChildren(ctx context.Context, parent xid.ID) ([]domain.CollectionChild, error) {
	if _, err := s.collections.Get(ctx, parent, "status"); err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	kids, err := s.collections.ListChildren(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	domain.SortChildren(kids)

	live := make([]bool, len(kids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveWorkers)
	for i := range kids {
		g.Go(func() error {
			ok, err := s.resolve(gctx, kids[i])
			if err != nil {
				return fmt.Errorf("resolve child %s: %w", kids[i].CID, err)
			}
			live[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := kids[:0]
	for i, c := range kids {
		if live[i] {
			out = append(out, c)
		}
	}
	if dropped := len(kids) - len(out); dropped > 0 {
		s.log.DebugContext(ctx, "dangling children skipped",
			slog.String("id", parent.String()),
			slog.Int("count", dropped),
		)
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, c domain.CollectionChild) (bool, error) {
	switch c.Kind {
	case domain.ChildCreation:
		_, err := s.creations.Get(ctx, c.GID, c.CID, "status")
		return found(err)
	case domain.ChildPublication:
		return s.hasPublished(ctx, c)
	case domain.ChildCollection:
		sub, err := s.collections.Get(ctx, c.CID, "status")
		if ok, err := found(err); !ok {
			return false, err
		}
		return sub.Status != domain.CollectionArchived, nil
	}
	return false, nil
}

// hasPublished reports whether some language of the creation still has a
// published version. Index locator rows only name candidate languages; they
// can outlive a retraction until the next sync.
func (s *Service) hasPublished(ctx context.Context, c domain.CollectionChild) (bool, error) {
	langs, err := s.published.ListLanguages(ctx, c.CID)
	if err != nil {
		return false, err
	}
	for _, lang := range langs {
		versions, err := s.publications.ListVersions(ctx, c.GID, c.CID, lang, "status")
		if err != nil {
			return false, fmt.Errorf("list versions of %s: %w", lang, err)
		}
		if domain.LatestPublished(versions) != nil {
			return true, nil
		}
	}
	return false, nil
}

func found(err error) (bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func indexOf(kids []domain.CollectionChild, cid xid.ID) int {
	for i := range kids {
		if kids[i].CID == cid {
			return i
		}
	}
	return -1
}

func dedupe(ids []xid.ID) []xid.ID {
	seen := make(map[xid.ID]bool, len(ids))
	out := make([]xid.ID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
