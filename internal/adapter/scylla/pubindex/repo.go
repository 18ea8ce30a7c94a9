// Package pubindex implements the day-bucketed index of published
// (creation, language) pairs.
//
// pub_index is partitioned by day so a day's publications are one partition
// read. pub_index_locator maps (cid, language) back to the day its row lives
// in, which keeps the one-row-per-pair invariant without scanning days.
package pubindex

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type locator struct {
	CID      xid.ID          `cql:"cid"`
	Language domain.Language `cql:"language"`
	Day      domain.Day      `cql:"day"`
	GID      xid.ID          `cql:"gid"`
	Version  int16           `cql:"version"`
}

var (
	table    = colmap.NewTable("pub_index", domain.PubIndexEntry{}, []string{"day"}, "cid", "language")
	locTable = colmap.NewTable("pub_index_locator", locator{}, []string{"cid"}, "language")
)

// Repo provides the day-bucket index backed by ScyllaDB.
type Repo struct {
	db *scylla.DB
}

// New creates a new index repository.
func New(db *scylla.DB) *Repo {
	return &Repo{db: db}
}

func pairKey(cid xid.ID, lang domain.Language) string { return cid.String() + "/" + string(lang) }

// Upsert records that (cid, language) is published. The first upsert places
// the row in e.Day; later ones keep the original bucket and raise the
// version to max(existing, e.Version). The stored entry is returned.
func (r *Repo) Upsert(ctx context.Context, e domain.PubIndexEntry) (*domain.PubIndexEntry, error) {
	loc := locator{CID: e.CID, Language: e.Language, Day: e.Day, GID: e.GID, Version: e.Version}
	cols, err := colmap.FromStruct(&loc)
	if err != nil {
		return nil, fmt.Errorf("map locator: %w", err)
	}
	ins, err := locTable.Insert(cols)
	if err != nil {
		return nil, fmt.Errorf("build locator insert: %w", err)
	}

	applied, current, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return nil, scylla.MapError(err, "pub_index_locator", pairKey(e.CID, e.Language))
	}
	if !applied {
		var existing locator
		if err := colmap.Fill(&existing, current); err != nil {
			return nil, fmt.Errorf("map locator row: %w", err)
		}
		e.Day = existing.Day
		if existing.Version > e.Version {
			e.Version = existing.Version
		}
		if existing.Version != e.Version || existing.GID != e.GID {
			upd, err := locTable.Update(colmap.Columns{"version": e.Version, "gid": e.GID}, colmap.Columns{"cid": e.CID, "language": e.Language})
			if err != nil {
				return nil, fmt.Errorf("build locator update: %w", err)
			}
			if err := r.db.Exec(ctx, upd); err != nil {
				return nil, scylla.MapError(err, "pub_index_locator", pairKey(e.CID, e.Language))
			}
		}
	}

	row, err := colmap.FromStruct(&e)
	if err != nil {
		return nil, fmt.Errorf("map index entry: %w", err)
	}
	idx, err := table.Insert(row)
	if err != nil {
		return nil, fmt.Errorf("build index insert: %w", err)
	}
	if err := r.db.Exec(ctx, idx); err != nil {
		return nil, scylla.MapError(err, "pub_index", pairKey(e.CID, e.Language))
	}
	return &e, nil
}

// ListByDay returns every index row in the day bucket.
func (r *Repo) ListByDay(ctx context.Context, day domain.Day) ([]domain.PubIndexEntry, error) {
	rows, err := r.db.All(ctx, table.Select(table.Columns(), colmap.Columns{"day": day}))
	if err != nil {
		return nil, scylla.MapError(err, "pub_index", day.String())
	}
	out := make([]domain.PubIndexEntry, 0, len(rows))
	for _, row := range rows {
		var e domain.PubIndexEntry
		if err := colmap.Fill(&e, row); err != nil {
			return nil, fmt.Errorf("map index row: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Get returns the index row of (cid, language) wherever it lives.
func (r *Repo) Get(ctx context.Context, cid xid.ID, lang domain.Language) (*domain.PubIndexEntry, error) {
	loc, err := r.locate(ctx, cid, lang)
	if err != nil {
		return nil, err
	}
	row, err := r.db.Get(ctx, table.Select(table.Columns(), colmap.Columns{"day": loc.Day, "cid": cid, "language": lang}).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, "pub_index", pairKey(cid, lang))
	}
	var e domain.PubIndexEntry
	if err := colmap.Fill(&e, row); err != nil {
		return nil, fmt.Errorf("map index row: %w", err)
	}
	return &e, nil
}

// ListLanguages returns the languages of cid that have an index row.
func (r *Repo) ListLanguages(ctx context.Context, cid xid.ID) ([]domain.Language, error) {
	rows, err := r.db.All(ctx, locTable.Select([]string{"language"}, colmap.Columns{"cid": cid}))
	if err != nil {
		return nil, scylla.MapError(err, "pub_index_locator", cid.String())
	}
	langs := make([]domain.Language, 0, len(rows))
	for _, row := range rows {
		l, err := colmap.Get[string](row, "language")
		if err != nil {
			return nil, err
		}
		langs = append(langs, domain.Language(l))
	}
	return langs, nil
}

// SetVersion repoints an existing index row to version.
func (r *Repo) SetVersion(ctx context.Context, day domain.Day, cid xid.ID, lang domain.Language, version int16, updatedAt int64) error {
	upd, err := table.Update(colmap.Columns{"version": version, "updated_at": updatedAt},
		colmap.Columns{"day": day, "cid": cid, "language": lang})
	if err != nil {
		return fmt.Errorf("build index update: %w", err)
	}
	locUpd, err := locTable.Update(colmap.Columns{"version": version}, colmap.Columns{"cid": cid, "language": lang})
	if err != nil {
		return fmt.Errorf("build locator update: %w", err)
	}

	if err := r.db.Exec(ctx, upd); err != nil {
		return scylla.MapError(err, "pub_index", pairKey(cid, lang))
	}
	if err := r.db.Exec(ctx, locUpd.Suffix("IF day = ?", day)); err != nil {
		return scylla.MapError(err, "pub_index_locator", pairKey(cid, lang))
	}
	return nil
}

// Delete removes the index row of e if it still carries e.UpdatedAt, then
// its locator when that still points at e.Day. A row rewritten since it was
// read is kept and false is returned. Deleting an absent row is a no-op.
func (r *Repo) Delete(ctx context.Context, e domain.PubIndexEntry) (bool, error) {
	del := table.Delete(colmap.Columns{"day": e.Day, "cid": e.CID, "language": e.Language}).
		Suffix("IF updated_at = ?", e.UpdatedAt)
	applied, _, err := r.db.CAS(ctx, del)
	if err != nil {
		return false, scylla.MapError(err, "pub_index", pairKey(e.CID, e.Language))
	}
	if !applied {
		return false, nil
	}
	locDel := locTable.Delete(colmap.Columns{"cid": e.CID, "language": e.Language}).Suffix("IF day = ?", e.Day)
	if _, _, err := r.db.CAS(ctx, locDel); err != nil {
		return false, scylla.MapError(err, "pub_index_locator", pairKey(e.CID, e.Language))
	}
	return true, nil
}

func (r *Repo) locate(ctx context.Context, cid xid.ID, lang domain.Language) (*locator, error) {
	row, err := r.db.Get(ctx, locTable.Select(locTable.Columns(), colmap.Columns{"cid": cid, "language": lang}).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, "pub_index_locator", pairKey(cid, lang))
	}
	var loc locator
	if err := colmap.Fill(&loc, row); err != nil {
		return nil, fmt.Errorf("map locator row: %w", err)
	}
	return &loc, nil
}
