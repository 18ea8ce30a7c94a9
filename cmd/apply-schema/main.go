// Command apply-schema creates the keyspace and every table of the store.
// All statements are idempotent, so it is safe to run on every deploy.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/app"
	"github.com/heartmarshall/writing/internal/config"
)

const cmdName = "apply-schema"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var replication int
	var printOnly bool
	fs := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
	fs.IntVar(&replication, "replication", 1, "replication factor of a newly created keyspace")
	fs.BoolVar(&printOnly, "print", false, "print the table statements instead of executing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if replication < 1 {
		return errors.New("--replication must be >= 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if printOnly {
		return printSchema(stdout, cfg.Retention.DeletedTTL)
	}

	log := app.NewLogger(cfg.Log, cmdName)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := createKeyspace(ctx, cfg.Scylla, replication); err != nil {
		return err
	}

	session, err := scylla.NewSession(ctx, cfg.Scylla)
	if err != nil {
		return fmt.Errorf("connect keyspace %s: %w", cfg.Scylla.Keyspace, err)
	}
	defer session.Close()

	if err := scylla.ApplySchema(ctx, session, cfg.Retention.DeletedTTL); err != nil {
		return err
	}
	log.InfoContext(ctx, "schema applied",
		slog.String("keyspace", cfg.Scylla.Keyspace),
		slog.Int("statements", len(scylla.SchemaStatements(cfg.Retention.DeletedTTL))),
	)
	return nil
}

// createKeyspace connects without a keyspace, which does not exist yet on a
// fresh cluster.
func createKeyspace(ctx context.Context, cfg config.ScyllaConfig, replication int) error {
	keyspace := cfg.Keyspace
	cfg.Keyspace = ""
	session, err := scylla.NewSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect cluster: %w", err)
	}
	defer session.Close()
	return scylla.CreateKeyspace(ctx, session, keyspace, replication)
}

func printSchema(w io.Writer, deletedTTL time.Duration) error {
	for _, stmt := range scylla.SchemaStatements(deletedTTL) {
		if _, err := fmt.Fprintf(w, "%s;\n\n", stmt); err != nil {
			return err
		}
	}
	return nil
}
