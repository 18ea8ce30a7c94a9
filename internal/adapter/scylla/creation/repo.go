// Package creation implements the Creation repository using ScyllaDB.
// Rows are partitioned by group; deleted rows move to a TTL'd shadow table.
package creation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var (
	table  = colmap.NewTable("creation", domain.Creation{}, []string{"gid"}, "id")
	shadow = table.WithName("deleted_creation")
)

// tokens are always read so callers can run conditional writes.
var tokens = []string{"status", "version", "approved_version", "updated_at"}

// Repo provides creation persistence backed by ScyllaDB.
type Repo struct {
	db  *scylla.DB
	ttl time.Duration
}

// New creates a new creation repository. deletedTTL is how long a deleted
// creation stays recoverable.
func New(db *scylla.DB, deletedTTL time.Duration) *Repo {
	return &Repo{db: db, ttl: deletedTTL}
}

func key(gid, id xid.ID) colmap.Columns {
	return colmap.Columns{"gid": gid, "id": id}
}

func keyString(gid, id xid.ID) string { return gid.String() + "/" + id.String() }

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns a creation. With fields, only those columns plus the key and
// compare tokens are read.
func (r *Repo) Get(ctx context.Context, gid, id xid.ID, fields ...string) (*domain.Creation, error) {
	return r.get(ctx, table, gid, id, fields)
}

// GetDeleted returns a creation from the shadow table.
func (r *Repo) GetDeleted(ctx context.Context, gid, id xid.ID) (*domain.Creation, error) {
	return r.get(ctx, shadow, gid, id, nil)
}

func (r *Repo) get(ctx context.Context, t *colmap.Table, gid, id xid.ID, fields []string) (*domain.Creation, error) {
	sel, err := t.SelectFields(fields, tokens...)
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), keyString(gid, id))
	}

	row, err := r.db.Get(ctx, t.Select(sel, key(gid, id)).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), keyString(gid, id))
	}
	return toDomain(row)
}

// List returns one page of a group's creations, newest first.
func (r *Repo) List(ctx context.Context, gid xid.ID, limit int, pageToken []byte, fields ...string) ([]domain.Creation, []byte, error) {
	sel, err := table.SelectFields(fields, tokens...)
	if err != nil {
		return nil, nil, scylla.MapError(err, "creation", gid.String())
	}

	rows, next, err := r.db.Page(ctx, table.Select(sel, colmap.Columns{"gid": gid}), limit, pageToken)
	if err != nil {
		return nil, nil, scylla.MapError(err, "creation", gid.String())
	}

	out := make([]domain.Creation, 0, len(rows))
	for _, row := range rows {
		c, err := toDomain(row)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, *c)
	}
	return out, next, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new creation. Returns domain.ErrAlreadyExists when the
// key is taken.
func (r *Repo) Create(ctx context.Context, c *domain.Creation) error {
	cols, err := colmap.FromStruct(c)
	if err != nil {
		return fmt.Errorf("map creation: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build creation insert: %w", err)
	}

	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "creation", keyString(c.GID, c.ID))
	}
	if !applied {
		return fmt.Errorf("creation %s: %w", keyString(c.GID, c.ID), domain.ErrAlreadyExists)
	}
	return nil
}

// Update writes the present columns of set if the row's updated_at still
// equals expectedUpdatedAt. set must include the new updated_at.
func (r *Repo) Update(ctx context.Context, gid, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error {
	upd, err := table.Update(set, key(gid, id))
	if err != nil {
		return scylla.MapError(err, "creation", keyString(gid, id))
	}

	applied, current, err := r.db.CAS(ctx, upd.Suffix("IF updated_at = ?", expectedUpdatedAt))
	if err != nil {
		return scylla.MapError(err, "creation", keyString(gid, id))
	}
	return scylla.CheckApplied("creation", keyString(gid, id), applied, current, "updated_at")
}

// Archive moves the creation into the shadow table. Returns false if it
// was already gone.
func (r *Repo) Archive(ctx context.Context, gid, id xid.ID) (bool, error) {
	moved, err := r.db.Archive(ctx, table, shadow, key(gid, id), r.ttl)
	if err != nil {
		return false, scylla.MapError(err, "creation", keyString(gid, id))
	}
	return moved, nil
}

// Restore moves a deleted creation back into the live table.
func (r *Repo) Restore(ctx context.Context, gid, id xid.ID) (*domain.Creation, error) {
	row, err := r.db.Restore(ctx, table, shadow, key(gid, id))
	if err != nil {
		return nil, scylla.MapError(err, "deleted_creation", keyString(gid, id))
	}
	return toDomain(row)
}

func toDomain(row colmap.Columns) (*domain.Creation, error) {
	var c domain.Creation
	if err := colmap.Fill(&c, row); err != nil {
		return nil, fmt.Errorf("map creation row: %w", err)
	}
	return &c, nil
}
