package colmap

import (
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
)

// Table describes one wide-column table and builds CQL statements for it.
type Table struct {
	name          string
	partitionKey  []string
	clusteringKey []string
	columns       []string
	known         map[string]bool
}

// NewTable derives the column list from the `cql` tags of record.
func NewTable(name string, record any, partitionKey []string, clusteringKey ...string) *Table {
	t := &Table{
		name:          name,
		partitionKey:  partitionKey,
		clusteringKey: clusteringKey,
		columns:       ColumnNames(record),
	}
	t.known = make(map[string]bool, len(t.columns))
	for _, c := range t.columns {
		t.known[c] = true
	}
	return t
}

// WithName returns a copy of t bound to another table with the same shape,
// such as a shadow table.
func (t *Table) WithName(name string) *Table {
	cp := *t
	cp.name = name
	return &cp
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// KeyColumns returns the partition key followed by the clustering key.
func (t *Table) KeyColumns() []string {
	return append(slices.Clone(t.partitionKey), t.clusteringKey...)
}

func (t *Table) PartitionKey() []string { return slices.Clone(t.partitionKey) }

func (t *Table) IsKey(name string) bool {
	return slices.Contains(t.partitionKey, name) || slices.Contains(t.clusteringKey, name)
}

// Validate rejects names that are not columns of the table.
func (t *Table) Validate(names ...string) error {
	for _, n := range names {
		if !t.known[n] {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.name, n)
		}
	}
	return nil
}

// SelectFields resolves a requested projection: empty means every column,
// otherwise the key columns are always included and duplicates dropped.
// extra columns are appended as well (compare tokens, for instance).
func (t *Table) SelectFields(requested []string, extra ...string) ([]string, error) {
	if len(requested) == 0 {
		return t.Columns(), nil
	}
	if err := t.Validate(requested...); err != nil {
		return nil, err
	}
	if err := t.Validate(extra...); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(requested)+len(extra))
	for _, n := range t.KeyColumns() {
		want[n] = true
	}
	for _, n := range requested {
		want[n] = true
	}
	for _, n := range extra {
		want[n] = true
	}
	fields := make([]string, 0, len(want))
	for _, c := range t.columns {
		if want[c] {
			fields = append(fields, c)
		}
	}
	return fields, nil
}

// KeyOf extracts the full primary key from cols.
func (t *Table) KeyOf(cols Columns) (Columns, error) {
	key := make(Columns, len(t.partitionKey)+len(t.clusteringKey))
	for _, n := range t.KeyColumns() {
		v, ok := cols[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingColumn, t.name, n)
		}
		key[n] = v
	}
	return key, nil
}

func eq(where Columns) sq.Eq {
	e := make(sq.Eq, len(where))
	for k, v := range where {
		e[k] = Value(v)
	}
	return e
}

// Select builds SELECT fields FROM table WHERE <where>.
func (t *Table) Select(fields []string, where Columns) sq.SelectBuilder {
	b := sq.Select(fields...).From(t.name)
	if len(where) > 0 {
		b = b.Where(eq(where))
	}
	return b
}

// Insert builds an INSERT of every present column in table order.
func (t *Table) Insert(cols Columns) (sq.InsertBuilder, error) {
	if err := t.Validate(cols.Keys()...); err != nil {
		return sq.InsertBuilder{}, err
	}
	if _, err := t.KeyOf(cols); err != nil {
		return sq.InsertBuilder{}, err
	}
	names := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	for _, c := range t.columns {
		if v, ok := cols[c]; ok {
			names = append(names, c)
			values = append(values, Value(v))
		}
	}
	return sq.Insert(t.name).Columns(names...).Values(values...), nil
}

// Update builds a partial UPDATE that sets only the present columns of set.
// Key columns cannot be set. A value may be a squirrel expression such as
// the ones returned by Add and Remove.
func (t *Table) Update(set Columns, key Columns) (sq.UpdateBuilder, error) {
	if len(set) == 0 {
		return sq.UpdateBuilder{}, fmt.Errorf("colmap: update %s: nothing to set", t.name)
	}
	if err := t.Validate(set.Keys()...); err != nil {
		return sq.UpdateBuilder{}, err
	}
	for _, k := range set.Keys() {
		if t.IsKey(k) {
			return sq.UpdateBuilder{}, fmt.Errorf("colmap: update %s: key column %s is immutable", t.name, k)
		}
	}
	full, err := t.KeyOf(key)
	if err != nil {
		return sq.UpdateBuilder{}, err
	}
	b := sq.Update(t.name)
	for _, c := range t.columns {
		v, ok := set[c]
		if !ok {
			continue
		}
		if expr, isExpr := v.(sq.Sqlizer); isExpr {
			b = b.Set(c, expr)
			continue
		}
		b = b.Set(c, Value(v))
	}
	return b.Where(eq(full)), nil
}

// Delete builds DELETE FROM table WHERE <where>. where may name a partition
// only, deleting the whole partition.
func (t *Table) Delete(where Columns) sq.DeleteBuilder {
	return sq.Delete(t.name).Where(eq(where))
}

// Add returns the collection append expression "col + ?" for list, set and
// map columns.
func Add(col string, v any) sq.Sqlizer {
	return sq.Expr(col+" + ?", Value(v))
}

// Remove returns "col - ?". For map columns v is the set of keys to drop.
func Remove(col string, v any) sq.Sqlizer {
	return sq.Expr(col+" - ?", Value(v))
}
