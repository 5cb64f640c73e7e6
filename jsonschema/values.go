package jsonschema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-reflect"

	"github.com/oarkflow/oasschema/marshaler"
)

// number is implemented by encoding/json.Number and goccy's Number.
type number interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// AsObject returns instance as a string-keyed map. map[string]any is returned
// as is; other string-keyed maps are copied.
func AsObject(instance any) (map[string]any, bool) {
	switch m := instance.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsArray returns instance as a slice. []byte is not an array.
func AsArray(instance any) ([]any, bool) {
	switch a := instance.(type) {
	case []any:
		return a, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// AsFloat returns the numeric value of instance. Booleans are not numbers.
func AsFloat(instance any) (float64, bool) {
	switch n := instance.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsIntegral reports whether instance is a Go integer or a float without a
// fractional part.
func IsIntegral(instance any) bool {
	switch n := instance.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return !math.IsInf(n, 0) && n == math.Trunc(n)
	case float32:
		f := float64(n)
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	case number:
		if _, err := n.Int64(); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && !math.IsInf(f, 0) && f == math.Trunc(f)
	}
	return false
}

// IsFloat reports whether instance is carried by a floating point type.
func IsFloat(instance any) bool {
	switch n := instance.(type) {
	case float32, float64:
		return true
	case number:
		return strings.ContainsAny(n.String(), ".eE")
	}
	return false
}

// Equal compares two JSON values. Numbers compare by value, so 1 equals 1.0.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []byte:
		y, ok := b.([]byte)
		return ok && string(x) == string(y)
	}
	if _, ok := b.(bool); ok {
		return false
	}
	if xf, ok := AsFloat(a); ok {
		yf, ok := AsFloat(b)
		return ok && xf == yf
	}
	if xo, ok := AsObject(a); ok {
		yo, ok := AsObject(b)
		if !ok || len(xo) != len(yo) {
			return false
		}
		for k, xv := range xo {
			yv, ok := yo[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	if xa, ok := AsArray(a); ok {
		ya, ok := AsArray(b)
		if !ok || len(xa) != len(ya) {
			return false
		}
		for i := range xa {
			if !Equal(xa[i], ya[i]) {
				return false
			}
		}
		return true
	}
	return Repr(a) == Repr(b)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Repr renders a value for error messages.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case []byte:
		return "b" + strconv.Quote(string(x))
	}
	if data, err := marshaler.Instance()(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// Quote renders a property or keyword name the way messages name them.
func Quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", `\'`) + "'"
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// ExtrasMsg joins the rendered extras and picks the matching verb.
func ExtrasMsg(extras []string) (string, string) {
	verb := "were"
	if len(extras) == 1 {
		verb = "was"
	}
	return strings.Join(extras, ", "), verb
}

func stringsOf(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	arr, ok := AsArray(value)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intOf(value any) (int, bool) {
	if !IsIntegral(value) {
		return 0, false
	}
	f, _ := AsFloat(value)
	return int(f), true
}

// Truthy reports whether value counts as set: false, null, zero and empty
// containers do not.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := AsFloat(value); ok {
		return f != 0
	}
	if m, ok := AsObject(value); ok {
		return len(m) > 0
	}
	if a, ok := AsArray(value); ok {
		return len(a) > 0
	}
	return true
}
