package scylla

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gocql/gocql"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// Archive copies the live row at key into shadow with a TTL, then removes the
// live row. The two writes are independent: a crash in between leaves both
// rows, and the live table stays authoritative. Returns false when the live
// row was already gone, in which case nothing is written.
func (db *DB) Archive(ctx context.Context, live, shadow *colmap.Table, key colmap.Columns, ttl time.Duration) (bool, error) {
	row, err := db.Get(ctx, live.Select(live.Columns(), key).Limit(1))
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", live.Name(), err)
	}

	ins, err := shadow.Insert(row)
	if err != nil {
		return false, err
	}
	if err := db.Exec(ctx, ins.Suffix("USING TTL ?", ttlSeconds(ttl))); err != nil {
		return false, fmt.Errorf("write %s: %w", shadow.Name(), err)
	}

	if err := db.Exec(ctx, live.Delete(key)); err != nil {
		return false, fmt.Errorf("delete %s: %w", live.Name(), err)
	}
	return true, nil
}

// Restore moves a shadow row back into the live table. The live insert is
// conditional so a row recreated meanwhile is never overwritten.
func (db *DB) Restore(ctx context.Context, live, shadow *colmap.Table, key colmap.Columns) (colmap.Columns, error) {
	row, err := db.Get(ctx, shadow.Select(shadow.Columns(), key).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", shadow.Name(), err)
	}

	ins, err := live.Insert(row)
	if err != nil {
		return nil, err
	}
	applied, _, err := db.CAS(ctx, ins.Suffix("IF NOT EXISTS"))
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", live.Name(), err)
	}
	if !applied {
		return nil, fmt.Errorf("%s: %w", live.Name(), domain.ErrAlreadyExists)
	}

	if err := db.Exec(ctx, shadow.Delete(key)); err != nil {
		return nil, fmt.Errorf("delete %s: %w", shadow.Name(), err)
	}
	return row, nil
}

// CheckApplied interprets a conditional update. A row the cluster could not
// find is reported as not found; any other rejection means the compare token
// was stale.
func CheckApplied(entity, key string, applied bool, current colmap.Columns, token string) error {
	if applied {
		return nil
	}
	// The driver reports a null token as its zero value.
	if v, ok := current[token]; !ok || v == nil || reflect.ValueOf(v).IsZero() {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", entity, key, domain.ErrVersionConflict)
}

func ttlSeconds(ttl time.Duration) int {
	s := int(ttl / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
