package jsonmap

import (
	"reflect"
	"strings"
	"sync"
)

type fieldInfo struct {
	index     []int
	name      string
	omitEmpty bool
}

var structCache sync.Map // map[reflect.Type][]fieldInfo

// fieldsOf lists the exported fields of t under their json names. Untagged
// embedded structs are flattened; a name already taken by an outer field
// shadows the embedded one.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.([]fieldInfo)
	}
	seen := map[string]bool{}
	fields := collectFields(t, nil, seen, nil)
	structCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int, seen map[string]bool, out []fieldInfo) []fieldInfo {
	var embedded []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if field.Anonymous && name == "" && field.Type.Kind() == reflect.Struct {
			embedded = append(embedded, field)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		index := append(append([]int(nil), prefix...), field.Index...)
		out = append(out, fieldInfo{
			index:     index,
			name:      name,
			omitEmpty: hasOption(opts, "omitempty") || hasOption(opts, "omitzero"),
		})
	}
	for _, field := range embedded {
		index := append(append([]int(nil), prefix...), field.Index...)
		out = collectFields(field.Type, index, seen, out)
	}
	return out
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}
