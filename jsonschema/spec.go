package jsonschema

import (
	"strings"

	"github.com/oarkflow/oasschema/jsonschema/specs"
)

// specification holds the identifier rules of a draft.
type specification struct {
	name      string
	idKeyword string
	anchors   bool // $anchor and $dynamicAnchor
	legacy    bool // "id": "#name" declares an anchor
}

var (
	draft4Spec      = &specification{name: "draft4", idKeyword: "id", legacy: true}
	draft202012Spec = &specification{name: "draft2020-12", idKeyword: "$id", anchors: true}
)

func (s *specification) idOf(schema map[string]any) string {
	id, _ := schema[s.idKeyword].(string)
	if s.legacy && strings.HasPrefix(id, "#") {
		return ""
	}
	return id
}

// specFor picks the rules from $schema, or fallback when it is absent.
func specFor(contents any, fallback *specification) *specification {
	m, ok := contents.(map[string]any)
	if !ok {
		return fallback
	}
	dialect, _ := m["$schema"].(string)
	switch specs.Normalize(dialect) {
	case "":
		return fallback
	case specs.Draft4:
		return draft4Spec
	default:
		return draft202012Spec
	}
}

var (
	schemaValued = map[string]bool{
		"additionalItems":       true,
		"additionalProperties":  true,
		"contains":              true,
		"contentSchema":         true,
		"else":                  true,
		"if":                    true,
		"items":                 true,
		"not":                   true,
		"propertyNames":         true,
		"then":                  true,
		"unevaluatedItems":      true,
		"unevaluatedProperties": true,
	}
	schemaArrayValued = map[string]bool{
		"allOf":       true,
		"anyOf":       true,
		"oneOf":       true,
		"prefixItems": true,
		"items":       true,
	}
	schemaMapValued = map[string]bool{
		"$defs":             true,
		"definitions":       true,
		"dependentSchemas":  true,
		"patternProperties": true,
		"properties":        true,
		"dependencies":      true,
	}
)

// crawl indexes every resource and anchor under node. current is the
// resource anchors are attached to.
func crawl(base string, node any, spec *specification, found map[string]*resource, current *resource) {
	m, ok := node.(map[string]any)
	if !ok {
		if current == nil {
			found[base] = &resource{uri: base, contents: node, anchors: map[string]anchor{}}
		}
		return
	}
	if id := spec.idOf(m); id != "" {
		if joined, err := joinURI(base, id); err == nil {
			base = specs.Normalize(stripFragment(joined))
			current = nil
		}
	}
	if current == nil {
		current = &resource{uri: base, contents: m, anchors: map[string]anchor{}}
		if _, taken := found[base]; !taken {
			found[base] = current
		}
	}
	if spec.anchors {
		if name, ok := m["$anchor"].(string); ok {
			current.anchors[name] = anchor{contents: m}
		}
		if name, ok := m["$dynamicAnchor"].(string); ok {
			current.anchors[name] = anchor{contents: m, dynamic: true}
		}
	}
	if spec.legacy {
		if id, ok := m[spec.idKeyword].(string); ok && strings.HasPrefix(id, "#") && len(id) > 1 {
			current.anchors[id[1:]] = anchor{contents: m}
		}
	}
	for _, key := range SortedKeys(m) {
		value := m[key]
		switch {
		case schemaMapValued[key]:
			if sub, ok := value.(map[string]any); ok {
				for _, k := range SortedKeys(sub) {
					crawl(base, sub[k], spec, found, current)
				}
			}
		case schemaArrayValued[key]:
			if arr, ok := value.([]any); ok {
				for _, item := range arr {
					crawl(base, item, spec, found, current)
				}
				continue
			}
			if schemaValued[key] {
				crawl(base, value, spec, found, current)
			}
		case schemaValued[key]:
			crawl(base, value, spec, found, current)
		}
	}
}
