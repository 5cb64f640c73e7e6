// Package specs bundles the metaschema documents the validators check schemas
// against, so metaschema resolution never touches the network.
package specs

import (
	"embed"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/unmarshaler"
)

const (
	Draft4       = "http://json-schema.org/draft-04/schema"
	Draft202012  = "https://json-schema.org/draft/2020-12/schema"
	OAS31Dialect = "https://spec.openapis.org/oas/3.1/dialect/base"
	OAS31Meta    = "https://spec.openapis.org/oas/3.1/meta/base"
	OAS32Dialect = "https://spec.openapis.org/oas/3.2/dialect/2025-09-17"
	OAS32Meta    = "https://spec.openapis.org/oas/3.2/meta/2025-09-17"
)

//go:embed schemas/*.json
var files embed.FS

var (
	loadOnce sync.Once
	loadErr  error
	docs     map[string]map[string]any
)

func load() {
	docs = make(map[string]map[string]any)
	entries, err := files.ReadDir("schemas")
	if err != nil {
		loadErr = errors.Wrap(err, "reading bundled metaschemas")
		return
	}
	for _, entry := range entries {
		name := path.Join("schemas", entry.Name())
		data, err := files.ReadFile(name)
		if err != nil {
			loadErr = errors.Wrapf(err, "reading %s", name)
			return
		}
		var doc map[string]any
		if err := unmarshaler.Instance()(data, &doc); err != nil {
			loadErr = errors.Wrapf(err, "decoding %s", name)
			return
		}
		id, _ := doc["$id"].(string)
		if id == "" {
			id, _ = doc["id"].(string)
		}
		if id == "" {
			loadErr = errors.Errorf("%s has no identifier", name)
			return
		}
		docs[Normalize(id)] = doc
	}
}

func ensure() {
	loadOnce.Do(load)
	if loadErr != nil {
		panic(loadErr)
	}
}

// Normalize drops an empty trailing fragment so that "x#" and "x" name the
// same document.
func Normalize(uri string) string {
	return strings.TrimSuffix(uri, "#")
}

// Lookup returns the bundled document with the given identifier. The returned
// map is shared and must not be modified.
func Lookup(uri string) (map[string]any, bool) {
	ensure()
	doc, ok := docs[Normalize(uri)]
	return doc, ok
}

// MustLookup is Lookup for identifiers known to be bundled.
func MustLookup(uri string) map[string]any {
	doc, ok := Lookup(uri)
	if !ok {
		panic("specs: no bundled document " + uri)
	}
	return doc
}

// URIs lists the identifiers of every bundled document, sorted.
func URIs() []string {
	ensure()
	out := make([]string, 0, len(docs))
	for uri := range docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}
