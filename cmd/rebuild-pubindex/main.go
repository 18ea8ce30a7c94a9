// Command rebuild-pubindex repopulates the day-bucket index from the
// publication table. Every published row is upserted into the bucket of the
// day it was last updated; the index keeps the highest version per
// (creation, language) pair, so the scan order does not matter and reruns
// are harmless.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/heartmarshall/writing/internal/app"
	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
)

const cmdName = "rebuild-pubindex"

// Columns the rebuild needs from each publication row.
var scanFields = []string{"gid", "cid", "language", "version", "status", "updated_at", "from_language", "model"}

type publicationScanner interface {
	Scan(ctx context.Context, limit int, pageToken []byte, fields ...string) ([]domain.Publication, []byte, error)
}

type indexWriter interface {
	Upsert(ctx context.Context, e domain.PubIndexEntry) (*domain.PubIndexEntry, error)
}

type stats struct {
	Scanned int
	Indexed int
}

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var pageSize int
	var dryRun bool
	fs := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
	fs.IntVar(&pageSize, "page-size", 500, "publications read per page")
	fs.BoolVar(&dryRun, "dry-run", false, "count the rows that would be indexed without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pageSize <= 0 {
		return errors.New("--page-size must be > 0")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := app.NewLogger(cfg.Log, cmdName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	st, err := rebuild(ctx, log, a.Repos.Publications, a.Repos.Index, pageSize, dryRun)
	log.InfoContext(ctx, "rebuild finished",
		slog.Int("scanned", st.Scanned),
		slog.Int("indexed", st.Indexed),
		slog.Bool("dry_run", dryRun),
		slog.Duration("took", time.Since(start)),
	)
	return err
}

func rebuild(ctx context.Context, log *slog.Logger, pubs publicationScanner, index indexWriter, pageSize int, dryRun bool) (stats, error) {
	var st stats
	var token []byte
	for page := 1; ; page++ {
		rows, next, err := pubs.Scan(ctx, pageSize, token, scanFields...)
		if err != nil {
			return st, fmt.Errorf("scan page %d: %w", page, err)
		}
		for i := range rows {
			p := &rows[i]
			st.Scanned++
			if p.Status != domain.PublicationPublished {
				continue
			}
			st.Indexed++
			if dryRun {
				continue
			}
			entry := domain.PubIndexEntry{
				Day:       domain.DayOf(time.UnixMilli(p.UpdatedAt)),
				CID:       p.CID,
				Language:  p.Language,
				GID:       p.GID,
				Version:   p.Version,
				Original:  p.IsOriginal(),
				UpdatedAt: p.UpdatedAt,
			}
			if _, err := index.Upsert(ctx, entry); err != nil {
				return st, fmt.Errorf("index %s/%s: %w", p.CID, p.Language, err)
			}
		}
		log.DebugContext(ctx, "page indexed", slog.Int("page", page), slog.Int("rows", len(rows)))
		if len(next) == 0 {
			return st, nil
		}
		token = next
	}
}
