// Package dialect keeps the process registry of validator variants keyed by
// dialect identifier and version label.
package dialect

import (
	"sort"
	"sync"

	"github.com/oarkflow/oasschema/jsonschema"
	"github.com/oarkflow/oasschema/jsonschema/specs"
	"github.com/oarkflow/oasschema/logger"
)

// Key names one registration.
type Key struct {
	ID    string
	Label string
}

type Registry struct {
	mu       sync.RWMutex
	variants map[Key]*jsonschema.Variant
}

func New() *Registry {
	return &Registry{variants: map[Key]*jsonschema.Variant{}}
}

var (
	defaultMu  sync.Mutex
	defaultReg = New()
)

// Default is the process registry the OAS variants register with.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultReg
}

// Reset replaces the process registry with an empty one. Variants keep their
// stamped metadata.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = New()
}

// Register stamps v with metaSchema and label and makes it discoverable by
// $schema. The first registration of a key wins; later ones return the
// variant already registered.
func (r *Registry) Register(v *jsonschema.Variant, id, label string, metaSchema map[string]any) *jsonschema.Variant {
	key := Key{ID: specs.Normalize(id), Label: label}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.variants[key]; ok {
		if existing != v {
			logger.Instance().Debug("dialect already registered", "id", key.ID, "label", label, "kept", existing.Name(), "ignored", v.Name())
		}
		return existing
	}
	if !v.Stamp(metaSchema, label) {
		logger.Instance().Debug("variant already stamped", "variant", v.Name(), "version", v.Version())
	}
	jsonschema.Validates(label, v)
	r.variants[key] = v
	return v
}

func (r *Registry) Lookup(id, label string) (*jsonschema.Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[Key{ID: specs.Normalize(id), Label: label}]
	return v, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}

// Keys lists the registrations sorted by identifier, then label.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.variants))
	for k := range r.variants {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Label < keys[j].Label
	})
	return keys
}
