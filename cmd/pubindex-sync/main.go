// Command pubindex-sync pushes the day-bucket index into the search engine.
//
// One-shot mode syncs the buckets between --from and --to (or the last
// --days days) and exits. Exit codes: 0 = every bucket synced, 1 = some bucket
// was deferred or failed, 2 = bad flags or config.
//
// With --daemon the command runs the sync scheduler on sync.cron and serves
// /live, /ready, /health and /metrics on ops.listen_addr until SIGINT or
// SIGTERM.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/writing/internal/app"
	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/pubsync"
	"github.com/heartmarshall/writing/internal/transport/rest"
)

const cmdName = "pubindex-sync"

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type options struct {
	from   string
	to     string
	days   int
	daemon bool
}

func main() {
	err := run(os.Args[1:])
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(1)
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
	fs.StringVar(&opts.from, "from", "", "first day to sync (YYYY-MM-DD)")
	fs.StringVar(&opts.to, "to", "", "last day to sync (YYYY-MM-DD, default today)")
	fs.IntVar(&opts.days, "days", 0, "sync the N days ending at --to, --to included (default sync.lookback_days)")
	fs.BoolVar(&opts.daemon, "daemon", false, "run the scheduler and the ops server until interrupted")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.daemon && (opts.from != "" || opts.to != "" || opts.days != 0) {
		return options{}, errors.New("--daemon cannot be combined with --from, --to or --days")
	}
	if opts.from != "" && opts.days != 0 {
		return options{}, errors.New("--from and --days are mutually exclusive")
	}
	if opts.days < 0 {
		return options{}, errors.New("--days must be >= 0")
	}
	return opts, nil
}

// resolveRange turns the one-shot flags into an inclusive day range. N days
// ending at --to include --to itself. lookback is used when neither --from nor
// --days is given.
func resolveRange(opts options, today domain.Day, lookback int) (domain.Day, domain.Day, error) {
	to := today
	if opts.to != "" {
		d, err := domain.ParseDay(opts.to)
		if err != nil {
			return 0, 0, err
		}
		to = d
	}
	if opts.from != "" {
		from, err := domain.ParseDay(opts.from)
		if err != nil {
			return 0, 0, err
		}
		if from > to {
			return 0, 0, fmt.Errorf("--from %s is after --to %s", from, to)
		}
		return from, to, nil
	}
	days := opts.days
	if days == 0 {
		days = lookback
	}
	return to - domain.Day(max(days, 1)-1), to, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	cfg, err := config.Load()
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("load config: %w", err)}
	}
	log := app.NewLogger(cfg.Log, cmdName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.daemon {
		return runDaemon(ctx, a)
	}
	return runOnce(ctx, a, opts)
}

func runOnce(ctx context.Context, a *app.App, opts options) error {
	from, to, err := resolveRange(opts, domain.DayOf(time.Now()), a.Config.Sync.LookbackDays)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	res, err := a.Sync.Run(ctx, from, to)
	if err != nil && len(res.Synced) == 0 && len(res.Deferred) == 0 && len(res.Failed) == 0 {
		return err
	}
	if len(res.Deferred) > 0 || len(res.Failed) > 0 {
		return &exitError{code: 1, err: fmt.Errorf("run %s: %d deferred, %d failed buckets",
			res.RunID, len(res.Deferred), len(res.Failed))}
	}
	return nil
}

func runDaemon(ctx context.Context, a *app.App) error {
	sched := pubsync.NewScheduler(a.Log, a.Sync, a.Config.Sync.Cron, a.Config.Sync.LookbackDays)

	health := rest.NewHealthHandler(app.BuildVersion(), map[string]rest.Pinger{
		"scylla": a.DB,
		"search": a.Search,
	}, sched.Ready)
	metrics := promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	srv := rest.NewOpsServer(a.Log, a.Config.Ops, rest.NewRouter(a.Log, health, metrics))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })

	a.Log.InfoContext(ctx, "daemon started",
		slog.String("cron", a.Config.Sync.Cron),
		slog.Int("lookback_days", a.Config.Sync.LookbackDays),
	)
	if err := g.Wait(); err != nil {
		return err
	}
	a.Log.Info("daemon stopped")
	return nil
}
