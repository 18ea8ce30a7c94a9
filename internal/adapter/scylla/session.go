package scylla

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"github.com/heartmarshall/writing/internal/config"
)

// NewCluster builds the driver configuration from ScyllaConfig. Keyspace is
// left as configured; callers that create the keyspace clear it first.
func NewCluster(cfg config.ScyllaConfig) (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(strings.ToUpper(cfg.Consistency))
	if err != nil {
		return nil, fmt.Errorf("parse consistency: %w", err)
	}

	cluster := gocql.NewCluster(cfg.Hosts()...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.NumConns = cfg.NumConns
	cluster.PageSize = cfg.PageSize
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster, nil
}

// NewSession connects to the cluster and pings it for fail-fast validation.
func NewSession(ctx context.Context, cfg config.ScyllaConfig) (*gocql.Session, error) {
	cluster, err := NewCluster(cfg)
	if err != nil {
		return nil, err
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := ping(ctx, session); err != nil {
		session.Close()
		return nil, fmt.Errorf("ping cluster: %w", err)
	}

	return session, nil
}

func ping(ctx context.Context, session *gocql.Session) error {
	var version string
	return session.Query(`SELECT release_version FROM system.local`).
		WithContext(ctx).
		Scan(&version)
}
