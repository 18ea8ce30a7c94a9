// Package content implements the immutable content row store on ScyllaDB.
package content

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var table = colmap.NewTable("content", domain.Content{}, []string{"id"})

// metaFields is every content column except the payload.
var metaFields = []string{"id", "gid", "cid", "status", "version", "language", "updated_at", "length", "hash"}

// Repo provides content persistence backed by ScyllaDB.
type Repo struct {
	db *scylla.DB
}

// New creates a new content repository.
func New(db *scylla.DB) *Repo {
	return &Repo{db: db}
}

// Insert writes a new content row. An existing id is never overwritten and
// returns domain.ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, c *domain.Content) error {
	cols, err := colmap.FromStruct(c)
	if err != nil {
		return fmt.Errorf("map content: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build content insert: %w", err)
	}

	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "content", c.ID.String())
	}
	if !applied {
		return fmt.Errorf("content %s: %w", c.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Get returns a full content row.
func (r *Repo) Get(ctx context.Context, id xid.ID) (*domain.Content, error) {
	return r.get(ctx, id, table.Columns())
}

// GetMeta returns a content row without its payload.
func (r *Repo) GetMeta(ctx context.Context, id xid.ID) (*domain.Content, error) {
	return r.get(ctx, id, metaFields)
}

func (r *Repo) get(ctx context.Context, id xid.ID, sel []string) (*domain.Content, error) {
	row, err := r.db.Get(ctx, table.Select(sel, colmap.Columns{"id": id}).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, "content", id.String())
	}

	var c domain.Content
	if err := colmap.Fill(&c, row); err != nil {
		return nil, fmt.Errorf("content %s: %w", id, err)
	}
	return &c, nil
}
