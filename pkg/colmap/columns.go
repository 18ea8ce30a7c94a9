// Package colmap translates between Go records and wide-column rows.
//
// A row is represented as Columns: only the columns that were selected or
// are being written are present, so partial reads and partial updates are
// expressed by which keys exist. Struct records declare their column names
// with `cql:"name"` tags.
package colmap

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrUnknownColumn = errors.New("colmap: unknown column")
	ErrMissingColumn = errors.New("colmap: missing column")
)

// Columns holds the values present in one row keyed by column name.
type Columns map[string]any

// Has reports whether the column is present, even with a null value.
func (c Columns) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Set stores v normalized to a driver-friendly value and returns c.
func (c Columns) Set(name string, v any) Columns {
	c[name] = Value(v)
	return c
}

// SetCBOR stores v encoded as CBOR.
func (c Columns) SetCBOR(name string, v any) error {
	b, err := MarshalCBOR(v)
	if err != nil {
		return fmt.Errorf("colmap: encode %s: %w", name, err)
	}
	c[name] = b
	return nil
}

// Keys returns the present column names in sorted order.
func (c Columns) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pick returns a copy holding only the named columns that are present.
func (c Columns) Pick(names ...string) Columns {
	out := make(Columns, len(names))
	for _, n := range names {
		if v, ok := c[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Merge copies every column of other into c, overwriting.
func (c Columns) Merge(other Columns) Columns {
	for k, v := range other {
		c[k] = v
	}
	return c
}

// Get converts a present column to T. Absent columns return ErrMissingColumn;
// null values return the zero T.
func Get[T any](c Columns, name string) (T, error) {
	var out T
	raw, ok := c[name]
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	dst := reflect.ValueOf(&out).Elem()
	if err := assign(dst, raw); err != nil {
		return out, fmt.Errorf("colmap: column %s: %w", name, err)
	}
	return out, nil
}

// GetCBOR decodes a CBOR-encoded blob column into T.
func GetCBOR[T any](c Columns, name string) (T, error) {
	var out T
	b, err := Get[[]byte](c, name)
	if err != nil {
		return out, err
	}
	if len(b) == 0 {
		return out, nil
	}
	if err := UnmarshalCBOR(b, &out); err != nil {
		return out, fmt.Errorf("colmap: decode %s: %w", name, err)
	}
	return out, nil
}
