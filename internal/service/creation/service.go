// Package creation implements the creation lifecycle: drafting, review,
// approval, archival, content replacement and soft deletion.
package creation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type creationRepo interface {
	Create(ctx context.Context, c *domain.Creation) error
	Get(ctx context.Context, gid, id xid.ID, fields ...string) (*domain.Creation, error)
	List(ctx context.Context, gid xid.ID, limit int, pageToken []byte, fields ...string) ([]domain.Creation, []byte, error)
	Update(ctx context.Context, gid, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error
	Archive(ctx context.Context, gid, id xid.ID) (bool, error)
	GetDeleted(ctx context.Context, gid, id xid.ID) (*domain.Creation, error)
	Restore(ctx context.Context, gid, id xid.ID) (*domain.Creation, error)
}

type publicationRepo interface {
	ListByCreation(ctx context.Context, gid, cid xid.ID, fields ...string) ([]domain.Publication, error)
	Archive(ctx context.Context, k domain.PublicationKey) (bool, error)
}

type contentStore interface {
	Put(ctx context.Context, input content.PutInput) (*domain.Content, error)
}

// Service provides creation lifecycle operations.
type Service struct {
	creations    creationRepo
	publications publicationRepo
	contents     contentStore
	now          func() time.Time
	log          *slog.Logger
}

// NewService creates a new creation service.
func NewService(
	log *slog.Logger,
	creations creationRepo,
	publications publicationRepo,
	contents contentStore,
) *Service {
	return &Service{
		creations:    creations,
		publications: publications,
		contents:     contents,
		now:          time.Now,
		log:          log.With("service", "creation"),
	}
}

// Get returns a creation. Status, version and updated_at are always read,
// whatever fields are requested.
func (s *Service) Get(ctx context.Context, gid, id xid.ID, fields ...string) (*domain.Creation, error) {
	return s.creations.Get(ctx, gid, id, fields...)
}

// List returns one page of a group's creations.
func (s *Service) List(ctx context.Context, gid xid.ID, limit int, pageToken []byte, fields ...string) ([]domain.Creation, []byte, error) {
	return s.creations.List(ctx, gid, limit, pageToken, fields...)
}

// current reads the row a mutation is based on and checks the caller's
// version token.
func (s *Service) current(ctx context.Context, gid, id xid.ID, version int16) (*domain.Creation, error) {
	c, err := s.creations.Get(ctx, gid, id)
	if err != nil {
		return nil, err
	}
	if version != c.Version {
		return nil, fmt.Errorf("creation %s is at version %d, expected %d: %w", id, c.Version, version, domain.ErrVersionConflict)
	}
	return c, nil
}
