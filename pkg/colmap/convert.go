package colmap

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/xid"
)

var idType = reflect.TypeOf(xid.ID{})

type field struct {
	name  string
	index int
}

type structInfo struct {
	fields []field
	byName map[string]field
}

var infoCache sync.Map // reflect.Type -> *structInfo

func infoOf(t reflect.Type) *structInfo {
	if v, ok := infoCache.Load(t); ok {
		return v.(*structInfo)
	}
	info := &structInfo{byName: make(map[string]field)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("cql"), ",")
		if name == "" || name == "-" {
			continue
		}
		f := field{name: name, index: i}
		info.fields = append(info.fields, f)
		info.byName[name] = f
	}
	v, _ := infoCache.LoadOrStore(t, info)
	return v.(*structInfo)
}

func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("colmap: nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("colmap: %s is not a struct", rv.Type())
	}
	return rv, nil
}

// ColumnNames lists the tagged columns of a record type in declaration order.
func ColumnNames(record any) []string {
	rv, err := structValue(record)
	if err != nil {
		return nil
	}
	info := infoOf(rv.Type())
	names := make([]string, len(info.fields))
	for i, f := range info.fields {
		names[i] = f.name
	}
	return names
}

// FromStruct reads the tagged fields of v into Columns. With names given,
// only those columns are read.
func FromStruct(v any, names ...string) (Columns, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}
	info := infoOf(rv.Type())

	if len(names) == 0 {
		cols := make(Columns, len(info.fields))
		for _, f := range info.fields {
			cols[f.name] = normalize(rv.Field(f.index))
		}
		return cols, nil
	}

	cols := make(Columns, len(names))
	for _, n := range names {
		f, ok := info.byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
		cols[n] = normalize(rv.Field(f.index))
	}
	return cols, nil
}

// Fill copies present columns into the tagged fields of dst, which must be
// a pointer to a struct. Columns without a matching field are ignored.
func Fill(dst any, cols Columns) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("colmap: Fill needs a non-nil pointer, got %T", dst)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("colmap: Fill needs a struct pointer, got %T", dst)
	}
	info := infoOf(rv.Type())
	for name, raw := range cols {
		f, ok := info.byName[name]
		if !ok {
			continue
		}
		if err := assign(rv.Field(f.index), raw); err != nil {
			return fmt.Errorf("colmap: column %s: %w", name, err)
		}
	}
	return nil
}

// Value normalizes v to the plain Go type the driver marshals: ids become
// blobs and named string or integer types lose their names.
func Value(v any) any {
	if v == nil {
		return nil
	}
	return normalize(reflect.ValueOf(v))
}

func normalize(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.Type() == idType {
		id := rv.Interface().(xid.ID)
		if id.IsNil() {
			return []byte(nil)
		}
		return id.Bytes()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int8:
		return int8(rv.Int())
	case reflect.Int16:
		return int16(rv.Int())
	case reflect.Int32:
		return int32(rv.Int())
	case reflect.Int64:
		return rv.Int()
	case reflect.Int:
		return int(rv.Int())
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		switch rv.Type().Elem().Kind() {
		case reflect.Uint8:
			return rv.Bytes()
		case reflect.String:
			out := make([]string, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).String()
			}
			return out
		}
		if rv.Type().Elem() == idType {
			out := make([][]byte, rv.Len())
			for i := range out {
				out[i], _ = normalize(rv.Index(i)).([]byte)
			}
			return out
		}
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Key().Kind() == reflect.String && rv.Type().Elem().Kind() == reflect.Slice &&
			rv.Type().Elem().Elem().Kind() == reflect.Uint8 {
			out := make(map[string][]byte, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().Bytes()
			}
			return out
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem())
	}
	return rv.Interface()
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// assign converts a driver value into dst.
func assign(dst reflect.Value, src any) error {
	dt := dst.Type()
	if src == nil {
		dst.Set(reflect.Zero(dt))
		return nil
	}
	sv := reflect.ValueOf(src)
	st := sv.Type()

	switch {
	case dt == idType:
		b, ok := src.([]byte)
		if !ok {
			if id, isID := src.(xid.ID); isID {
				dst.Set(reflect.ValueOf(id))
				return nil
			}
			return fmt.Errorf("cannot decode %T as id", src)
		}
		if len(b) == 0 {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		id, err := xid.FromBytes(b)
		if err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		dst.Set(reflect.ValueOf(id))
		return nil

	case st.AssignableTo(dt):
		dst.Set(sv)
		return nil

	case dt.Kind() == reflect.Slice && dt.Elem().Kind() == reflect.Uint8 &&
		st.Kind() == reflect.Slice && st.Elem().Kind() == reflect.Uint8:
		dst.SetBytes(sv.Bytes())
		return nil

	case dt.Kind() == reflect.Slice && st.Kind() == reflect.Slice:
		out := reflect.MakeSlice(dt, sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := assign(out.Index(i), sv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case dt.Kind() == reflect.Map && st.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(dt, sv.Len())
		iter := sv.MapRange()
		for iter.Next() {
			k := reflect.New(dt.Key()).Elem()
			if err := assign(k, iter.Key().Interface()); err != nil {
				return fmt.Errorf("map key: %w", err)
			}
			v := reflect.New(dt.Elem()).Elem()
			if err := assign(v, iter.Value().Interface()); err != nil {
				return fmt.Errorf("map value: %w", err)
			}
			out.SetMapIndex(k, v)
		}
		dst.Set(out)
		return nil

	case dt.Kind() == reflect.String && st.Kind() == reflect.String:
		dst.SetString(sv.String())
		return nil

	case dt.Kind() == reflect.Bool && st.Kind() == reflect.Bool:
		dst.SetBool(sv.Bool())
		return nil

	case isNumber(dt.Kind()) && isNumber(st.Kind()):
		dst.Set(sv.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", st, dt)
}
