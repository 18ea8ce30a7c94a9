package scylla

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

//go:embed schema.cql
var schemaCQL string

// SchemaStatements returns the schema as individual statements with the
// retention of soft-deleted rows filled in.
func SchemaStatements(deletedTTL time.Duration) []string {
	var body strings.Builder
	for _, line := range strings.Split(schemaCQL, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	text := strings.ReplaceAll(body.String(), "{{deleted_ttl}}", strconv.Itoa(ttlSeconds(deletedTTL)))

	var stmts []string
	for _, s := range strings.Split(text, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// CreateKeyspace creates keyspace with SimpleStrategy replication if it does
// not exist. session must not be bound to the keyspace.
func CreateKeyspace(ctx context.Context, session *gocql.Session, keyspace string, replication int) error {
	if !validIdentifier(keyspace) {
		return fmt.Errorf("invalid keyspace name %q", keyspace)
	}
	stmt := fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
		keyspace, replication)
	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}
	return nil
}

// ApplySchema runs every schema statement. All statements are idempotent.
func ApplySchema(ctx context.Context, session *gocql.Session, deletedTTL time.Duration) error {
	for i, stmt := range SchemaStatements(deletedTTL) {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func validIdentifier(s string) bool {
	if s == "" || len(s) > 48 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
