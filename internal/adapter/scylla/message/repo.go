// Package message implements translated message persistence using ScyllaDB.
// Payloads live in one map column keyed by language with a companion set of
// populated languages.
package message

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var table = colmap.NewTable("message", domain.Message{}, []string{"day"}, "id")

// Repo provides message persistence backed by ScyllaDB.
type Repo struct {
	db *scylla.DB
}

// New creates a new message repository.
func New(db *scylla.DB) *Repo {
	return &Repo{db: db}
}

func key(id xid.ID) colmap.Columns {
	return colmap.Columns{"day": domain.IDDay(id), "id": id}
}

// Create inserts a message. An existing id returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, m *domain.Message) error {
	cols, err := colmap.FromStruct(m)
	if err != nil {
		return fmt.Errorf("map message: %w", err)
	}
	ins, err := table.Insert(cols)
	if err != nil {
		return fmt.Errorf("build message insert: %w", err)
	}
	applied, _, err := r.db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return scylla.MapError(err, "message", m.ID.String())
	}
	if !applied {
		return fmt.Errorf("message %s: %w", m.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Get returns a message. With fields, only those columns plus the version
// token are read.
func (r *Repo) Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Message, error) {
	sel, err := table.SelectFields(fields, "version", "language", "languages")
	if err != nil {
		return nil, scylla.MapError(err, "message", id.String())
	}
	row, err := r.db.Get(ctx, table.Select(sel, key(id)).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, "message", id.String())
	}
	var m domain.Message
	if err := colmap.Fill(&m, row); err != nil {
		return nil, fmt.Errorf("map message row: %w", err)
	}
	return &m, nil
}

// SetText puts or, with an empty payload, removes the text of one language.
// texts and languages change in the same conditional write so they never
// disagree.
func (r *Repo) SetText(ctx context.Context, id xid.ID, lang domain.Language, payload []byte, expectedVersion int16, updatedAt int64) error {
	set := colmap.Columns{
		"version":    expectedVersion + 1,
		"updated_at": updatedAt,
	}
	if len(payload) == 0 {
		set["texts"] = colmap.Remove("texts", []string{string(lang)})
		set["languages"] = colmap.Remove("languages", []string{string(lang)})
	} else {
		set["texts"] = colmap.Add("texts", map[string][]byte{string(lang): payload})
		set["languages"] = colmap.Add("languages", []string{string(lang)})
	}

	upd, err := table.Update(set, key(id))
	if err != nil {
		return fmt.Errorf("build message update: %w", err)
	}
	applied, current, err := r.db.CAS(ctx, upd.Suffix("IF version = ?", expectedVersion))
	if err != nil {
		return scylla.MapError(err, "message", id.String())
	}
	return scylla.CheckApplied("message", id.String(), applied, current, "version")
}

// Delete removes a message.
func (r *Repo) Delete(ctx context.Context, id xid.ID) error {
	if err := r.db.Exec(ctx, table.Delete(key(id))); err != nil {
		return scylla.MapError(err, "message", id.String())
	}
	return nil
}
