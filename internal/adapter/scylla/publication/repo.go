// Package publication implements the Publication repository using ScyllaDB.
// All languages and versions of one group's publications share a partition.
package publication

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
	table  = colmap.NewTable("publication", domain.Publication{}, []string{"gid"}, "cid", "language", "version")
	shadow = table.WithName("deleted_publication")
)

var tokens = []string{"status", "updated_at"}

// Repo provides publication persistence backed by ScyllaDB.
type Repo struct {
	db  *scylla.DB
	ttl time.Duration
}

// New creates a new publication repository.
func New(db *scylla.DB, deletedTTL time.Duration) *Repo {
	return &Repo{db: db, ttl: deletedTTL}
}

func key(k domain.PublicationKey) colmap.Columns {
	return colmap.Columns{"gid": k.GID, "cid": k.CID, "language": k.Language, "version": k.Version}
}

// Get returns one publication.
func (r *Repo) Get(ctx context.Context, k domain.PublicationKey, fields ...string) (*domain.Publication, error) {
	return r.get(ctx, table, k, fields)
}

// GetDeleted returns a publication from the shadow table.
func (r *Repo) GetDeleted(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	return r.get(ctx, shadow, k, nil)
}

func (r *Repo) get(ctx context.Context, t *colmap.Table, k domain.PublicationKey, fields []string) (*domain.Publication, error) {
	sel, err := t.SelectFields(fields, tokens...)
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), k.String())
	}
	row, err := r.db.Get(ctx, t.Select(sel, key(k)).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), k.String())
	}
	return toDomain(row)
}

// ListVersions returns every version of (cid, language), lowest first.
func (r *Repo) ListVersions(ctx context.Context, gid, cid xid.ID, lang domain.Language, fields ...string) ([]domain.Publication, error) {
	where := colmap.Columns{"gid": gid, "cid": cid, "language": lang}
	return r.list(ctx, where, fields)
}

// ListByCreation returns every publication of a creation across languages.
func (r *Repo) ListByCreation(ctx context.Context, gid, cid xid.ID, fields ...string) ([]domain.Publication, error) {
	return r.list(ctx, colmap.Columns{"gid": gid, "cid": cid}, fields)
}

func (r *Repo) list(ctx context.Context, where colmap.Columns, fields []string) ([]domain.Publication, error) {
	sel, err := table.SelectFields(fields, tokens...)
	if err != nil {
		return nil, scylla.MapError(err, "publication", "")
	}
	rows, err := r.db.All(ctx, table.Select(sel, where))
	if err != nil {
		return nil, scylla.MapError(err, "publication", "")
	}
	return toDomainList(rows)
}

// Scan returns one page of the whole publication table. It backs the
// offline index rebuild and is never used on request paths.
func (r *Repo) Scan(ctx context.Context, limit int, pageToken []byte, fields ...string) ([]domain.Publication, []byte, error) {
	sel, err := table.SelectFields(fields, tokens...)
	if err != nil {
		return nil, nil, scylla.MapError(err, "publication", "")
	}
	rows, next, err := r.db.Page(ctx, table.Select(sel, nil), limit, pageToken)
	if err != nil {
		return nil, nil, scylla.MapError(err, "publication", "")
	}
	pubs, err := toDomainList(rows)
	if err != nil {
		return nil, nil, err
	}
	return pubs, next, nil
}

// Create inserts a publication. An existing key returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p *domain.Publication) error {
	cols, err := colmap.FromStruct(p)
	if err != nil {
		return fmt.Errorf("map publication: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build publication insert: %w", err)
	}

	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "publication", p.Key().String())
	}
	if !applied {
		return fmt.Errorf("publication %s: %w", p.Key(), domain.ErrAlreadyExists)
	}
	return nil
}

// Update writes set if updated_at still equals expectedUpdatedAt.
func (r *Repo) Update(ctx context.Context, k domain.PublicationKey, set colmap.Columns, expectedUpdatedAt int64) error {
	upd, err := table.Update(set, key(k))
	if err != nil {
		return scylla.MapError(err, "publication", k.String())
	}
	applied, current, err := r.db.CAS(ctx, upd.Suffix("IF updated_at = ?", expectedUpdatedAt))
	if err != nil {
		return scylla.MapError(err, "publication", k.String())
	}
	return scylla.CheckApplied("publication", k.String(), applied, current, "updated_at")
}

// Archive moves the publication into the shadow table.
func (r *Repo) Archive(ctx context.Context, k domain.PublicationKey) (bool, error) {
	moved, err := r.db.Archive(ctx, table, shadow, key(k), r.ttl)
	if err != nil {
		return false, scylla.MapError(err, "publication", k.String())
	}
	return moved, nil
}

// Restore moves a deleted publication back into the live table.
func (r *Repo) Restore(ctx context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	row, err := r.db.Restore(ctx, table, shadow, key(k))
	if err != nil {
		return nil, scylla.MapError(err, "deleted_publication", k.String())
	}
	return toDomain(row)
}

func toDomain(row colmap.Columns) (*domain.Publication, error) {
	var p domain.Publication
	if err := colmap.Fill(&p, row); err != nil {
		return nil, fmt.Errorf("map publication row: %w", err)
	}
	return &p, nil
}

func toDomainList(rows []colmap.Columns) ([]domain.Publication, error) {
	out := make([]domain.Publication, 0, len(rows))
	for _, row := range rows {
		p, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
