package scylla

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gocql/gocql"

	"github.com/heartmarshall/writing/pkg/colmap"
)

// DB wraps a session with the statement helpers shared by the repositories.
// Statements are built with colmap tables and squirrel.
type DB struct {
	session  *gocql.Session
	pageSize int
}

// NewDB wraps session. pageSize bounds every paged read.
func NewDB(session *gocql.Session, pageSize int) *DB {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &DB{session: session, pageSize: pageSize}
}

func (db *DB) Session() *gocql.Session { return db.session }

// Ping checks that the cluster answers queries.
func (db *DB) Ping(ctx context.Context) error {
	return ping(ctx, db.session)
}

func (db *DB) query(ctx context.Context, b sq.Sqlizer) (*gocql.Query, error) {
	stmt, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	return db.session.Query(stmt, args...).WithContext(ctx), nil
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, b sq.Sqlizer) error {
	q, err := db.query(ctx, b)
	if err != nil {
		return err
	}
	return q.Exec()
}

// Get reads a single row. A missing row returns gocql.ErrNotFound.
func (db *DB) Get(ctx context.Context, b sq.Sqlizer) (colmap.Columns, error) {
	q, err := db.query(ctx, b)
	if err != nil {
		return nil, err
	}
	row := make(map[string]any)
	if err := q.MapScan(row); err != nil {
		return nil, err
	}
	return colmap.Columns(row), nil
}

// Page reads up to limit rows starting at pageState and returns the state of
// the next page, nil when exhausted.
func (db *DB) Page(ctx context.Context, b sq.Sqlizer, limit int, pageState []byte) ([]colmap.Columns, []byte, error) {
	q, err := db.query(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 || limit > db.pageSize {
		limit = db.pageSize
	}
	iter := q.PageSize(limit).PageState(pageState).Iter()

	rows := make([]colmap.Columns, 0, iter.NumRows())
	for {
		row := make(map[string]any)
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, colmap.Columns(row))
	}
	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, err
	}
	if len(next) == 0 {
		next = nil
	}
	return rows, next, nil
}

// Each streams every row of the result through fn, paging transparently.
// Returning an error from fn stops the scan.
func (db *DB) Each(ctx context.Context, b sq.Sqlizer, fn func(colmap.Columns) error) error {
	q, err := db.query(ctx, b)
	if err != nil {
		return err
	}
	iter := q.PageSize(db.pageSize).Iter()
	for {
		row := make(map[string]any)
		if !iter.MapScan(row) {
			break
		}
		if err := fn(colmap.Columns(row)); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}

// All collects every row of the result.
func (db *DB) All(ctx context.Context, b sq.Sqlizer) ([]colmap.Columns, error) {
	var rows []colmap.Columns
	err := db.Each(ctx, b, func(row colmap.Columns) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// CAS runs a lightweight transaction. When it is not applied, current holds
// the row as the cluster saw it.
func (db *DB) CAS(ctx context.Context, b sq.Sqlizer) (applied bool, current colmap.Columns, err error) {
	q, err := db.query(ctx, b)
	if err != nil {
		return false, nil, err
	}
	row := make(map[string]any)
	applied, err = q.MapScanCAS(row)
	if err != nil {
		return false, nil, err
	}
	delete(row, "[applied]")
	return applied, colmap.Columns(row), nil
}

// Batch executes statements as one unlogged batch. Callers keep batches to a
// single partition, where they apply atomically.
func (db *DB) Batch(ctx context.Context, stmts ...sq.Sqlizer) error {
	if len(stmts) == 0 {
		return nil
	}
	batch := db.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, b := range stmts {
		stmt, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build statement: %w", err)
		}
		batch.Query(stmt, args...)
	}
	return db.session.ExecuteBatch(batch)
}
