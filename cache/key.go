package cache

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-reflect"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/oarkflow/oasschema/jsonschema"
)

// Key is the structural fingerprint of a validation request. Two keys are
// equal when they were built from the same variant, remote policy and
// structurally equal schema and arguments.
type Key struct {
	sum       uint64
	canonical string
}

// Sum is the 64-bit digest of the fingerprint.
func (k Key) Sum() uint64 {
	return k.sum
}

// Fingerprint is the canonical text the key was derived from.
func (k Key) Fingerprint() string {
	return k.canonical
}

func (k Key) String() string {
	return strconv.FormatUint(k.sum, 16)
}

// BuildKey fingerprints schema together with everything that changes the
// compiled validator. Maps are sorted by key, sequences keep their order and
// numbers compare by value, so 1 and 1.0 fingerprint alike. Values that are
// neither primitive nor container fall back to their identity.
func BuildKey(schema any, variant *jsonschema.Variant, args []any, kwargs map[string]any, allowRemote bool) Key {
	var b strings.Builder
	fmt.Fprintf(&b, "v%x;r%t;", identity(variant), allowRemote)
	freeze(&b, schema)
	b.WriteByte(';')
	freeze(&b, args)
	b.WriteByte(';')
	freeze(&b, kwargs)
	canonical := b.String()
	return Key{sum: fnv1a.HashString64(canonical), canonical: canonical}
}

func identity(value any) uintptr {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.Pointer()
	}
	return 0
}

func freeze(b *strings.Builder, value any) {
	switch v := value.(type) {
	case nil:
		b.WriteByte('n')
		return
	case bool:
		if v {
			b.WriteByte('t')
		} else {
			b.WriteByte('f')
		}
		return
	case string:
		b.WriteByte('s')
		b.WriteString(strconv.Quote(v))
		return
	case []byte:
		b.WriteByte('b')
		b.WriteString(strconv.Quote(string(v)))
		return
	case map[string]any:
		freezeObject(b, v)
		return
	case []any:
		freezeArray(b, v)
		return
	}
	if freezeNumber(b, value) {
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		freezeMap(b, rv)
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		freezeArray(b, items)
	case reflect.String:
		freeze(b, rv.String())
	case reflect.Bool:
		freeze(b, rv.Bool())
	case reflect.Ptr, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		fmt.Fprintf(b, "@%s:%x", rv.Type(), rv.Pointer())
	default:
		fmt.Fprintf(b, "@%s:%#v", rv.Type(), value)
	}
}

func freezeNumber(b *strings.Builder, value any) bool {
	switch n := value.(type) {
	case int:
		b.WriteString("i" + strconv.FormatInt(int64(n), 10))
		return true
	case int64:
		b.WriteString("i" + strconv.FormatInt(n, 10))
		return true
	case int32:
		b.WriteString("i" + strconv.FormatInt(int64(n), 10))
		return true
	case uint64:
		b.WriteString("i" + strconv.FormatUint(n, 10))
		return true
	case uint:
		b.WriteString("i" + strconv.FormatUint(uint64(n), 10))
		return true
	}
	f, ok := jsonschema.AsFloat(value)
	if !ok {
		return false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		b.WriteString("i" + strconv.FormatInt(int64(f), 10))
		return true
	}
	b.WriteString("d" + strconv.FormatFloat(f, 'g', -1, 64))
	return true
}

func freezeObject(b *strings.Builder, m map[string]any) {
	keys := jsonschema.SortedKeys(m)
	b.WriteByte('{')
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		freeze(b, m[k])
		b.WriteByte(',')
	}
	b.WriteByte('}')
}

// freezeMap handles typed maps; keys are compared by their text.
func freezeMap(b *strings.Builder, rv reflect.Value) {
	entries := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		freeze(b, entries[k])
		b.WriteByte(',')
	}
	b.WriteByte('}')
}

func freezeArray(b *strings.Builder, items []any) {
	b.WriteByte('[')
	for _, item := range items {
		freeze(b, item)
		b.WriteByte(',')
	}
	b.WriteByte(']')
}
