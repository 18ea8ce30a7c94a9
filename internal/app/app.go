// Package app wires the store, the search client and the services into one
// process-owned handle shared by every command.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gocql/gocql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	bookmarkrepo "github.com/heartmarshall/writing/internal/adapter/scylla/bookmark"
	collectionrepo "github.com/heartmarshall/writing/internal/adapter/scylla/collection"
	contentrepo "github.com/heartmarshall/writing/internal/adapter/scylla/content"
	creationrepo "github.com/heartmarshall/writing/internal/adapter/scylla/creation"
	messagerepo "github.com/heartmarshall/writing/internal/adapter/scylla/message"
	"github.com/heartmarshall/writing/internal/adapter/scylla/pubindex"
	publicationrepo "github.com/heartmarshall/writing/internal/adapter/scylla/publication"
	subscriptionrepo "github.com/heartmarshall/writing/internal/adapter/scylla/subscription"
	"github.com/heartmarshall/writing/internal/adapter/search"
	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/service/bookmark"
	"github.com/heartmarshall/writing/internal/service/collection"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/internal/service/creation"
	"github.com/heartmarshall/writing/internal/service/message"
	"github.com/heartmarshall/writing/internal/service/publication"
	"github.com/heartmarshall/writing/internal/service/pubsync"
	"github.com/heartmarshall/writing/internal/service/subscription"
)

// Repos are the store adapters, exposed for commands that bypass services.
type Repos struct {
	Publications *publicationrepo.Repo
	Index        *pubindex.Repo
}

// App owns the connections of a process. Close releases them.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	DB       *scylla.DB
	Search   *search.Client
	Registry *prometheus.Registry
	Repos    Repos

	Contents      *content.Service
	Creations     *creation.Service
	Publications  *publication.Service
	Collections   *collection.Service
	Subscriptions *subscription.Service
	Bookmarks     *bookmark.Service
	Messages      *message.Service
	Sync          *pubsync.Service

	session *gocql.Session
}

// New connects to the store and builds every service.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	session, err := scylla.NewSession(ctx, cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("connect scylla: %w", err)
	}
	db := scylla.NewDB(session, cfg.Scylla.PageSize)
	ttl := cfg.Retention.DeletedTTL

	contentRepo := contentrepo.New(db)
	creationRepo := creationrepo.New(db, ttl)
	publicationRepo := publicationrepo.New(db, ttl)
	collectionRepo := collectionrepo.New(db, ttl)
	indexRepo := pubindex.New(db)

	contents, err := content.NewService(log, contentRepo, cfg.Content)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("content service: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	searchClient := search.New(cfg.Search)

	a := &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Search:   searchClient,
		Registry: reg,
		Repos:    Repos{Publications: publicationRepo, Index: indexRepo},

		Contents:      contents,
		Creations:     creation.NewService(log, creationRepo, publicationRepo, contents),
		Publications:  publication.NewService(log, publicationRepo, creationRepo, contents, indexRepo, cfg.Sync),
		Collections:   collection.NewService(log, collectionRepo, creationRepo, indexRepo, publicationRepo, cfg.Collection),
		Subscriptions: subscription.NewService(log, subscriptionrepo.New(db)),
		Bookmarks:     bookmark.NewService(log, bookmarkrepo.New(db)),
		Messages:      message.NewService(log, messagerepo.New(db)),
		Sync: pubsync.NewService(log, indexRepo, publicationRepo, searchClient,
			pubsync.NewMetrics(reg), cfg.Sync, cfg.Search.RequestsPerSecond),

		session: session,
	}

	log.InfoContext(ctx, "app initialized",
		slog.String("keyspace", cfg.Scylla.Keyspace),
		slog.String("search_index", cfg.Search.Index),
	)
	return a, nil
}

// Close releases the store session and the content coders.
func (a *App) Close() {
	a.Contents.Close()
	a.session.Close()
}
