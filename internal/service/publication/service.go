// Package publication implements the publication lifecycle and keeps the
// day-bucket index in step with publishing.
package publication

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

//go:generate moq -out creation_reader_mock_test.go -pkg publication . creationReader

type publicationRepo interface {
	Create(ctx context.Context, p *domain.Publication) error
	Get(ctx context.Context, k domain.PublicationKey, fields ...string) (*domain.Publication, error)
	ListVersions(ctx context.Context, gid, cid xid.ID, lang domain.Language, fields ...string) ([]domain.Publication, error)
	ListByCreation(ctx context.Context, gid, cid xid.ID, fields ...string) ([]domain.Publication, error)
	Update(ctx context.Context, k domain.PublicationKey, set colmap.Columns, expectedUpdatedAt int64) error
	Archive(ctx context.Context, k domain.PublicationKey) (bool, error)
	GetDeleted(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error)
	Restore(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error)
}

type creationReader interface {
	Get(ctx context.Context, gid, id xid.ID, fields ...string) (*domain.Creation, error)
}

type contentStore interface {
	Put(ctx context.Context, input content.PutInput) (*domain.Content, error)
	Stat(ctx context.Context, id xid.ID) (*domain.Content, error)
}

type indexRepo interface {
	Upsert(ctx context.Context, e domain.PubIndexEntry) (*domain.PubIndexEntry, error)
	Get(ctx context.Context, cid xid.ID, lang domain.Language) (*domain.PubIndexEntry, error)
	ListByDay(ctx context.Context, day domain.Day) ([]domain.PubIndexEntry, error)
	SetVersion(ctx context.Context, day domain.Day, cid xid.ID, lang domain.Language, version int16, updatedAt int64) error
}

// Service provides publication lifecycle operations.
type Service struct {
	publications publicationRepo
	creations    creationReader
	contents     contentStore
	index        indexRepo
	retries      uint64
	backoff      time.Duration
	now          func() time.Time
	log          *slog.Logger
}

// NewService creates a new publication service. cfg bounds the retries of
// the index write that follows a publish.
func NewService(
	log *slog.Logger,
	publications publicationRepo,
	creations creationReader,
	contents contentStore,
	index indexRepo,
	cfg config.SyncConfig,
) *Service {
	return &Service{
		publications: publications,
		creations:    creations,
		contents:     contents,
		index:        index,
		retries:      cfg.IndexRetries,
		backoff:      cfg.RetryBackoff,
		now:          time.Now,
		log:          log.With("service", "publication"),
	}
}

// Get returns a publication.
func (s *Service) Get(ctx context.Context, k domain.PublicationKey, fields ...string) (*domain.Publication, error) {
	return s.publications.Get(ctx, k, fields...)
}

// ListVersions returns every version of a creation in one language.
func (s *Service) ListVersions(ctx context.Context, gid, cid xid.ID, lang domain.Language, fields ...string) ([]domain.Publication, error) {
	return s.publications.ListVersions(ctx, gid, cid, lang, fields...)
}

// ListByCreation returns every publication of a creation.
func (s *Service) ListByCreation(ctx context.Context, gid, cid xid.ID, fields ...string) ([]domain.Publication, error) {
	return s.publications.ListByCreation(ctx, gid, cid, fields...)
}
