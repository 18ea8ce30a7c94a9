// Package collection implements collection and collection-children
// persistence using ScyllaDB.
package collection

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var (
	table    = colmap.NewTable("collection", domain.Collection{}, []string{"day"}, "id")
	shadow   = table.WithName("deleted_collection")
	children = colmap.NewTable("collection_children", domain.CollectionChild{}, []string{"id"}, "cid")
)

var tokens = []string{"status", "version", "updated_at"}

// batchSize bounds the statements per unlogged batch of appended children.
const batchSize = 100

// Repo provides collection persistence backed by ScyllaDB.
type Repo struct {
	db  *scylla.DB
	ttl time.Duration
}

// New creates a new collection repository.
func New(db *scylla.DB, deletedTTL time.Duration) *Repo {
	return &Repo{db: db, ttl: deletedTTL}
}

// The bucket of a collection is derived from its id, so callers only ever
// pass the id.
func key(id xid.ID) colmap.Columns {
	return colmap.Columns{"day": domain.IDDay(id), "id": id}
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

// Get returns a collection.
func (r *Repo) Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Collection, error) {
	return r.get(ctx, table, id, fields)
}

// GetDeleted returns a collection from the shadow table.
func (r *Repo) GetDeleted(ctx context.Context, id xid.ID) (*domain.Collection, error) {
	return r.get(ctx, shadow, id, nil)
}

func (r *Repo) get(ctx context.Context, t *colmap.Table, id xid.ID, fields []string) (*domain.Collection, error) {
	sel, err := t.SelectFields(fields, tokens...)
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), id.String())
	}
	row, err := r.db.Get(ctx, t.Select(sel, key(id)).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), id.String())
	}
	var c domain.Collection
	if err := colmap.Fill(&c, row); err != nil {
		return nil, fmt.Errorf("map collection row: %w", err)
	}
	return &c, nil
}

// Create inserts a collection. c.Day must already match the id.
func (r *Repo) Create(ctx context.Context, c *domain.Collection) error {
	cols, err := colmap.FromStruct(c)
	if err != nil {
		return fmt.Errorf("map collection: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build collection insert: %w", err)
	}
	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "collection", c.ID.String())
	}
	if !applied {
		return fmt.Errorf("collection %s: %w", c.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Update writes set if updated_at still equals expectedUpdatedAt.
func (r *Repo) Update(ctx context.Context, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error {
	upd, err := table.Update(set, key(id))
	if err != nil {
		return scylla.MapError(err, "collection", id.String())
	}
	applied, current, err := r.db.CAS(ctx, upd.Suffix("IF updated_at = ?", expectedUpdatedAt))
	if err != nil {
		return scylla.MapError(err, "collection", id.String())
	}
	return scylla.CheckApplied("collection", id.String(), applied, current, "updated_at")
}

// Archive moves the collection into the shadow table. Its children rows are
// left in place so a restore brings the tree back intact.
func (r *Repo) Archive(ctx context.Context, id xid.ID) (bool, error) {
	moved, err := r.db.Archive(ctx, table, shadow, key(id), r.ttl)
	if err != nil {
		return false, scylla.MapError(err, "collection", id.String())
	}
	return moved, nil
}

// Restore moves a deleted collection back into the live table.
func (r *Repo) Restore(ctx context.Context, id xid.ID) (*domain.Collection, error) {
	row, err := r.db.Restore(ctx, table, shadow, key(id))
	if err != nil {
		return nil, scylla.MapError(err, "deleted_collection", id.String())
	}
	var c domain.Collection
	if err := colmap.Fill(&c, row); err != nil {
		return nil, fmt.Errorf("map collection row: %w", err)
	}
	return &c, nil
}

// ---------------------------------------------------------------------------
// Children
// ---------------------------------------------------------------------------

// ListChildren returns every child of a collection in storage order.
// Callers sort by ord with domain.SortChildren.
func (r *Repo) ListChildren(ctx context.Context, id xid.ID) ([]domain.CollectionChild, error) {
	rows, err := r.db.All(ctx, children.Select(children.Columns(), colmap.Columns{"id": id}))
	if err != nil {
		return nil, scylla.MapError(err, "collection_children", id.String())
	}
	out := make([]domain.CollectionChild, 0, len(rows))
	for _, row := range rows {
		var c domain.CollectionChild
		if err := colmap.Fill(&c, row); err != nil {
			return nil, fmt.Errorf("map child row: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// PutChildren writes children rows of one collection, overwriting existing
// rows with the same child id.
func (r *Repo) PutChildren(ctx context.Context, id xid.ID, items []domain.CollectionChild) error {
	stmts := make([]sq.Sqlizer, 0, len(items))
	for i := range items {
		items[i].ID = id
		cols, err := colmap.FromStruct(&items[i])
		if err != nil {
			return fmt.Errorf("map child: %w", err)
		}
		ins, err := children.Insert(cols)
		if err != nil {
			return fmt.Errorf("build child insert: %w", err)
		}
		stmts = append(stmts, ins)
	}
	return r.batch(ctx, id, stmts)
}

// SetOrders rewrites the order key of existing children in one batch, so a
// renormalization of the partition applies atomically. Keys are child ids.
func (r *Repo) SetOrders(ctx context.Context, id xid.ID, ords map[xid.ID]float64, updatedAt int64) error {
	stmts := make([]sq.Sqlizer, 0, len(ords))
	for cid, ord := range ords {
		upd, err := children.Update(colmap.Columns{"ord": ord, "updated_at": updatedAt}, colmap.Columns{"id": id, "cid": cid})
		if err != nil {
			return fmt.Errorf("build child update: %w", err)
		}
		stmts = append(stmts, upd)
	}
	if err := r.db.Batch(ctx, stmts...); err != nil {
		return scylla.MapError(err, "collection_children", id.String())
	}
	return nil
}

// RemoveChild deletes one child row. Removing an absent child is a no-op.
func (r *Repo) RemoveChild(ctx context.Context, id, cid xid.ID) error {
	if err := r.db.Exec(ctx, children.Delete(colmap.Columns{"id": id, "cid": cid})); err != nil {
		return scylla.MapError(err, "collection_children", id.String())
	}
	return nil
}

func (r *Repo) batch(ctx context.Context, id xid.ID, stmts []sq.Sqlizer) error {
	for start := 0; start < len(stmts); start += batchSize {
		end := min(start+batchSize, len(stmts))
		if err := r.db.Batch(ctx, stmts[start:end]...); err != nil {
			return scylla.MapError(err, "collection_children", id.String())
		}
	}
	return nil
}
