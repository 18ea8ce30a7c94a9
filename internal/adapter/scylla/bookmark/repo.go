// Package bookmark implements per-user bookmark persistence using ScyllaDB.
package bookmark

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var table = colmap.NewTable("bookmark", domain.Bookmark{}, []string{"uid"}, "id")

// Repo provides bookmark persistence backed by ScyllaDB.
type Repo struct {
	db *scylla.DB
}

// New creates a new bookmark repository.
func New(db *scylla.DB) *Repo {
	return &Repo{db: db}
}

func key(uid, id xid.ID) colmap.Columns { return colmap.Columns{"uid": uid, "id": id} }

// Create inserts a bookmark. An existing id returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, b *domain.Bookmark) error {
	cols, err := colmap.FromStruct(b)
	if err != nil {
		return fmt.Errorf("map bookmark: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build bookmark insert: %w", err)
	}
	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "bookmark", b.ID.String())
	}
	if !applied {
		return fmt.Errorf("bookmark %s: %w", b.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Get returns one bookmark of the user.
func (r *Repo) Get(ctx context.Context, uid, id xid.ID, fields ...string) (*domain.Bookmark, error) {
	sel, err := table.SelectFields(fields, "updated_at")
	if err != nil {
		return nil, scylla.MapError(err, "bookmark", id.String())
	}
	row, err := r.db.Get(ctx, table.Select(sel, key(uid, id)).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, "bookmark", id.String())
	}
	return toDomain(row)
}

// GetByTarget returns the user's bookmarks on cid through the local index.
func (r *Repo) GetByTarget(ctx context.Context, uid, cid xid.ID) ([]domain.Bookmark, error) {
	rows, err := r.db.All(ctx, table.Select(table.Columns(), colmap.Columns{"uid": uid, "cid": cid}))
	if err != nil {
		return nil, scylla.MapError(err, "bookmark", cid.String())
	}
	return toDomainList(rows)
}

// List returns one page of the user's bookmarks, newest first.
func (r *Repo) List(ctx context.Context, uid xid.ID, limit int, pageToken []byte, fields ...string) ([]domain.Bookmark, []byte, error) {
	sel, err := table.SelectFields(fields, "updated_at")
	if err != nil {
		return nil, nil, scylla.MapError(err, "bookmark", uid.String())
	}
	rows, next, err := r.db.Page(ctx, table.Select(sel, colmap.Columns{"uid": uid}), limit, pageToken)
	if err != nil {
		return nil, nil, scylla.MapError(err, "bookmark", uid.String())
	}
	out, err := toDomainList(rows)
	if err != nil {
		return nil, nil, err
	}
	return out, next, nil
}

// Update writes set if updated_at still equals expectedUpdatedAt.
func (r *Repo) Update(ctx context.Context, uid, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error {
	upd, err := table.Update(set, key(uid, id))
	if err != nil {
		return scylla.MapError(err, "bookmark", id.String())
	}
	applied, current, err := r.db.CAS(ctx, upd.Suffix("IF updated_at = ?", expectedUpdatedAt))
	if err != nil {
		return scylla.MapError(err, "bookmark", id.String())
	}
	return scylla.CheckApplied("bookmark", id.String(), applied, current, "updated_at")
}

// Delete removes a bookmark. Deleting an absent bookmark is a no-op.
func (r *Repo) Delete(ctx context.Context, uid, id xid.ID) error {
	if err := r.db.Exec(ctx, table.Delete(key(uid, id))); err != nil {
		return scylla.MapError(err, "bookmark", id.String())
	}
	return nil
}

func toDomain(row colmap.Columns) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := colmap.Fill(&b, row); err != nil {
		return nil, fmt.Errorf("map bookmark row: %w", err)
	}
	return &b, nil
}

func toDomainList(rows []colmap.Columns) ([]domain.Bookmark, error) {
	out := make([]domain.Bookmark, 0, len(rows))
	for _, row := range rows {
		b, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}
