package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// Create stores a new collection at version 1.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Collection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id := domain.NewID()
	c := &domain.Collection{
		Day:           domain.IDDay(id),
		ID:            id,
		GID:           input.GID,
		Status:        input.Status,
		Rating:        input.Rating,
		Price:         input.Price,
		CreationPrice: input.CreationPrice,
		Language:      input.Language,
		Version:       1,
		UpdatedAt:     s.now().UnixMilli(),
		Title:         strings.TrimSpace(input.Title),
		Summary:       input.Summary,
		Cover:         input.Cover,
		Keywords:      input.Keywords,
		Labels:        input.Labels,
		MID:           input.MID,
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.log.InfoContext(ctx, "collection created",
		slog.String("id", c.ID.String()),
		slog.String("gid", c.GID.String()),
	)
	return c, nil
}

// Get returns a collection.
func (s *Service) Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Collection, error) {
	return s.collections.Get(ctx, id, fields...)
}

func (s *Service) current(ctx context.Context, id xid.ID, version int16) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	if c.Version != version {
		return nil, fmt.Errorf("collection %s is at version %d, expected %d: %w", id, c.Version, version, domain.ErrVersionConflict)
	}
	return c, nil
}

// write applies set to c as the next version.
func (s *Service) write(ctx context.Context, c *domain.Collection, set colmap.Columns) error {
	set["version"] = c.Version + 1
	set["updated_at"] = domain.NextUpdatedAt(c.UpdatedAt, s.now())
	if err := s.collections.Update(ctx, c.ID, set, c.UpdatedAt); err != nil {
		return err
	}
	return colmap.Fill(c, set)
}

// Update changes collection metadata.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Collection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	c, err := s.current(ctx, input.ID, input.Version)
	if err != nil {
		return nil, err
	}

	set := colmap.Columns{}
	if input.Rating != nil {
		set["rating"] = *input.Rating
	}
	if input.Price != nil {
		set["price"] = *input.Price
	}
	if input.CreationPrice != nil {
		set["creation_price"] = *input.CreationPrice
	}
	if input.Title != nil {
		set["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Summary != nil {
		set["summary"] = *input.Summary
	}
	if input.Cover != nil {
		set["cover"] = *input.Cover
	}
	if input.Keywords != nil {
		set["keywords"] = input.Keywords
	}
	if input.Labels != nil {
		set["labels"] = input.Labels
	}
	if input.MID != nil {
		set["mid"] = *input.MID
	}

	if err := s.write(ctx, c, set); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	s.log.InfoContext(ctx, "collection updated",
		slog.String("id", c.ID.String()),
		slog.Int("version", int(c.Version)),
	)
	return c, nil
}

// UpdateStatus changes the visibility of a collection. Any status may follow
// any other; requesting the current one is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Collection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	c, err := s.current(ctx, input.ID, input.Version)
	if err != nil {
		return nil, err
	}
	if c.Status == input.Status {
		return c, nil
	}

	if err := s.write(ctx, c, colmap.Columns{"status": input.Status}); err != nil {
		return nil, fmt.Errorf("update collection status: %w", err)
	}
	s.log.InfoContext(ctx, "collection status changed",
		slog.String("id", c.ID.String()),
		slog.String("status", c.Status.String()),
	)
	return c, nil
}

// Delete soft-deletes the collection at version. Its children rows stay so a
// restore brings the tree back. Deleting an absent collection returns false.
func (s *Service) Delete(ctx context.Context, id xid.ID, version int16) (bool, error) {
	c, err := s.collections.Get(ctx, id, "version")
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get collection: %w", err)
	}
	if c.Version != version {
		return false, fmt.Errorf("collection %s is at version %d, expected %d: %w", id, c.Version, version, domain.ErrVersionConflict)
	}

	moved, err := s.collections.Archive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete collection: %w", err)
	}
	if moved {
		s.log.InfoContext(ctx, "collection deleted", slog.String("id", id.String()))
	}
	return moved, nil
}

// GetDeleted returns a soft-deleted collection while it is retained.
func (s *Service) GetDeleted(ctx context.Context, id xid.ID) (*domain.Collection, error) {
	return s.collections.GetDeleted(ctx, id)
}

// Restore brings a soft-deleted collection back.
func (s *Service) Restore(ctx context.Context, id xid.ID) (*domain.Collection, error) {
	c, err := s.collections.Restore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore collection: %w", err)
	}
	s.log.InfoContext(ctx, "collection restored", slog.String("id", id.String()))
	return c, nil
}
