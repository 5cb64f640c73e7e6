// Package jsonmap converts typed Go values into the JSON data model that
// schemas are evaluated against: map[string]any, []any, strings, numbers,
// booleans and nil.
package jsonmap

import (
	"maps"
	"reflect"
	"slices"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/marshaler"
	"github.com/oarkflow/oasschema/unmarshaler"
)

// number is implemented by json.Number, which is kept so that decoders
// configured with UseNumber keep their precision.
type number interface {
	Float64() (float64, error)
	Int64() (int64, error)
}

// Normalize returns v in the JSON data model. Structs become objects keyed
// by their json tags, typed maps and slices become map[string]any and []any,
// pointers are followed and named scalar types are unwrapped. A value that
// implements json.Marshaler takes a round trip through the configured codec.
//
// []byte stays as given. Containers already in the data model are returned
// unchanged, so the common case does not allocate.
func Normalize(v any) (any, error) {
	out, _, err := normalize(v)
	return out, err
}

func normalize(v any) (any, bool, error) {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, []byte:
		return v, false, nil
	case map[string]any:
		return normalizeObject(x)
	case []any:
		return normalizeArray(x)
	case number:
		return v, false, nil
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, true, nil
	}
	if m, ok := v.(json.Marshaler); ok {
		out, err := roundTrip(m)
		return out, true, err
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		out, _, err := normalize(rv.Elem().Interface())
		return out, true, err
	case reflect.Struct:
		out, err := normalizeStruct(rv)
		return out, true, err
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, false, nil
		}
		if rv.IsNil() {
			return nil, true, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, _, err := normalize(iter.Value().Interface())
			if err != nil {
				return nil, false, errors.Wrapf(err, "key %q", iter.Key().String())
			}
			out[iter.Key().String()] = item
		}
		return out, true, nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, true, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), true, nil
		}
		return normalizeList(rv)
	case reflect.Array:
		return normalizeList(rv)
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return rv.Bool(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true, nil
	}
	return v, false, nil
}

func normalizeObject(obj map[string]any) (any, bool, error) {
	var out map[string]any
	for k, item := range obj {
		n, changed, err := normalize(item)
		if err != nil {
			return nil, false, errors.Wrapf(err, "key %q", k)
		}
		if !changed {
			continue
		}
		if out == nil {
			out = maps.Clone(obj)
		}
		out[k] = n
	}
	if out == nil {
		return obj, false, nil
	}
	return out, true, nil
}

func normalizeArray(arr []any) (any, bool, error) {
	var out []any
	for i, item := range arr {
		n, changed, err := normalize(item)
		if err != nil {
			return nil, false, errors.Wrapf(err, "index %d", i)
		}
		if !changed {
			continue
		}
		if out == nil {
			out = slices.Clone(arr)
		}
		out[i] = n
	}
	if out == nil {
		return arr, false, nil
	}
	return out, true, nil
}

func normalizeList(rv reflect.Value) (any, bool, error) {
	out := make([]any, rv.Len())
	for i := range out {
		item, _, err := normalize(rv.Index(i).Interface())
		if err != nil {
			return nil, false, errors.Wrapf(err, "index %d", i)
		}
		out[i] = item
	}
	return out, true, nil
}

func normalizeStruct(rv reflect.Value) (map[string]any, error) {
	fields := fieldsOf(rv.Type())
	out := make(map[string]any, len(fields))
	for _, info := range fields {
		fv := rv.FieldByIndex(info.index)
		if info.omitEmpty && fv.IsZero() {
			continue
		}
		item, _, err := normalize(fv.Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", info.name)
		}
		out[info.name] = item
	}
	return out, nil
}

func roundTrip(m json.Marshaler) (any, error) {
	data, err := marshaler.Instance()(m)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %T", m)
	}
	var out any
	if err := unmarshaler.Instance()(data, &out); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %T", m)
	}
	return out, nil
}
