// Package testhelper starts a shared ScyllaDB container for repository
// integration tests.
package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/config"
)

const (
	keyspace   = "writing_test"
	deletedTTL = 200 * 24 * time.Hour
)

var (
	once      sync.Once
	sharedCfg config.ScyllaConfig
	initErr   error
)

// SetupTestDB starts a shared ScyllaDB container (once for the entire test
// run), applies the schema, and returns a DB bound to the test keyspace.
// The session is closed via t.Cleanup; the container lives until the process exits.
func SetupTestDB(t *testing.T) *scylla.DB {
	t.Helper()

	once.Do(func() {
		sharedCfg, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := scylla.NewSession(ctx, sharedCfg)
	if err != nil {
		t.Fatalf("testhelper: failed to create session: %v", err)
	}
	t.Cleanup(session.Close)

	return scylla.NewDB(session, sharedCfg.PageSize)
}

// DeletedTTL is the retention the test schema was created with.
func DeletedTTL() time.Duration { return deletedTTL }

func startContainerAndMigrate() (config.ScyllaConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "scylladb/scylla:6.2",
		ExposedPorts: []string{"9042/tcp"},
		Cmd:          []string{"--smp", "1", "--memory", "512M", "--overprovisioned", "1", "--developer-mode", "1"},
		WaitingFor: wait.ForListeningPort("9042/tcp").
			WithStartupTimeout(150 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return config.ScyllaConfig{}, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return config.ScyllaConfig{}, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "9042")
	if err != nil {
		return config.ScyllaConfig{}, fmt.Errorf("get mapped port: %w", err)
	}

	cfg := config.ScyllaConfig{
		HostsRaw:       fmt.Sprintf("%s:%s", host, port.Port()),
		Consistency:    "ONE",
		Timeout:        10 * time.Second,
		ConnectTimeout: 20 * time.Second,
		NumConns:       1,
		PageSize:       100,
	}

	// The CQL port opens before the node accepts schema changes; retry the
	// first connection for a while.
	var bootErr error
	for attempt := 0; attempt < 30; attempt++ {
		if bootErr = bootstrap(ctx, cfg); bootErr == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if bootErr != nil {
		return config.ScyllaConfig{}, bootErr
	}

	cfg.Keyspace = keyspace
	return cfg, nil
}

func bootstrap(ctx context.Context, cfg config.ScyllaConfig) error {
	session, err := scylla.NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	if err := scylla.CreateKeyspace(ctx, session, keyspace, 1); err != nil {
		session.Close()
		return err
	}
	session.Close()

	cfg.Keyspace = keyspace
	ks, err := scylla.NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer ks.Close()
	return scylla.ApplySchema(ctx, ks, deletedTTL)
}
