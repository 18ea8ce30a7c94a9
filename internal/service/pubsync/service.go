// Package pubsync reconciles the search engine with the publication store.
//
// A pass reads the day-bucket index, re-reads every referenced publication
// and upserts or retracts its search document. Everything it writes is
// derived from current store state, so a bucket can be redone any number of
// times. A bucket that hits an unavailable dependency is deferred whole.
package pubsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
)

type indexRepo interface {
	ListByDay(ctx context.Context, day domain.Day) ([]domain.PubIndexEntry, error)
	SetVersion(ctx context.Context, day domain.Day, cid xid.ID, lang domain.Language, version int16, updatedAt int64) error
	Delete(ctx context.Context, e domain.PubIndexEntry) (bool, error)
}

type publicationRepo interface {
	ListVersions(ctx context.Context, gid, cid xid.ID, lang domain.Language, fields ...string) ([]domain.Publication, error)
}

type searchEngine interface {
	Upsert(ctx context.Context, docs []domain.SearchDocument) error
	Delete(ctx context.Context, ids []string) error
}

// Service runs sync passes.
type Service struct {
	index        indexRepo
	publications publicationRepo
	search       searchEngine
	limiter      *rate.Limiter
	metrics      *Metrics
	workers      int
	now          func() time.Time
	log          *slog.Logger
}

// NewService creates a sync service. Search calls are limited to
// searchRPS per second.
func NewService(log *slog.Logger, index indexRepo, publications publicationRepo, search searchEngine, metrics *Metrics, cfg config.SyncConfig, searchRPS float64) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		index:        index,
		publications: publications,
		search:       search,
		limiter:      rate.NewLimiter(rate.Limit(searchRPS), 1),
		metrics:      metrics,
		workers:      workers,
		now:          time.Now,
		log:          log.With("service", "pubsync"),
	}
}
