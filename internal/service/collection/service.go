// Package collection implements collections and their ordered children.
//
// Children carry a fractional order key. Moving a child writes only that
// child's key, placed halfway between its new neighbours; the partition is
// renumbered only when neighbouring keys get too close to split.
package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

const (
	// OrdStep is the spacing of appended and renumbered children.
	OrdStep = 1024.0
	// MinOrdGap is the smallest gap between neighbours that is still split.
	MinOrdGap = 1e-6
)

// resolveWorkers bounds concurrent lookups when listing children.
const resolveWorkers = 8

type collectionRepo interface {
	Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Collection, error)
	GetDeleted(ctx context.Context, id xid.ID) (*domain.Collection, error)
	Create(ctx context.Context, c *domain.Collection) error
	Update(ctx context.Context, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error
	Archive(ctx context.Context, id xid.ID) (bool, error)
	Restore(ctx context.Context, id xid.ID) (*domain.Collection, error)
	ListChildren(ctx context.Context, id xid.ID) ([]domain.CollectionChild, error)
	PutChildren(ctx context.Context, id xid.ID, items []domain.CollectionChild) error
	SetOrders(ctx context.Context, id xid.ID, ords map[xid.ID]float64, updatedAt int64) error
	RemoveChild(ctx context.Context, id, cid xid.ID) error
}

type creationReader interface {
	Get(ctx context.Context, gid, id xid.ID, fields ...string) (*domain.Creation, error)
}

type languageIndex interface {
	ListLanguages(ctx context.Context, cid xid.ID) ([]domain.Language, error)
}

type publicationReader interface {
	ListVersions(ctx context.Context, gid, cid xid.ID, lang domain.Language, fields ...string) ([]domain.Publication, error)
}

// Service provides collection operations.
type Service struct {
	collections  collectionRepo
	creations    creationReader
	published    languageIndex
	publications publicationReader
	maxChildren  int
	maxDepth     int
	now          func() time.Time
	log          *slog.Logger
}

// NewService creates a new collection service.
func NewService(
	log *slog.Logger,
	collections collectionRepo,
	creations creationReader,
	published languageIndex,
	publications publicationReader,
	cfg config.CollectionConfig,
) *Service {
	return &Service{
		collections:  collections,
		creations:    creations,
		published:    published,
		publications: publications,
		maxChildren:  cfg.MaxChildren,
		maxDepth:     cfg.MaxDepth,
		now:          time.Now,
		log:          log.With("service", "collection"),
	}
}
