package jsonschema

import (
	"iter"
	"sort"
	"sync"

	"go.uber.org/atomic"

	"github.com/oarkflow/oasschema/jsonschema/specs"
)

// Keyword evaluates one schema keyword against an instance. value is the
// keyword's value and schema the object containing it. Evaluators yield
// failures lazily and must stop when yield returns false.
type Keyword func(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError]

// Keywords maps keyword names to evaluators.
type Keywords map[string]Keyword

// Clone returns a copy of k.
func (k Keywords) Clone() Keywords {
	out := make(Keywords, len(k))
	for name, fn := range k {
		out[name] = fn
	}
	return out
}

// VariantConfig describes a variant built from scratch.
type VariantConfig struct {
	MetaSchemaURI string
	Keywords      Keywords
	Types         *TypeChecker
	Formats       *FormatChecker
	// Legacy selects draft-04 identifier rules ("id", fragment anchors).
	Legacy bool
	// IgnoreRefSiblings evaluates only $ref when a schema has one.
	IgnoreRefSiblings bool
}

// Overrides lists what Extend changes; zero fields inherit.
type Overrides struct {
	MetaSchemaURI string
	Keywords      Keywords
	Remove        []string
	Types         *TypeChecker
	Formats       *FormatChecker
}

type dialectInfo struct {
	metaSchema map[string]any
	version    string
}

// Variant is a named, immutable validator configuration. The only mutation
// it accepts is a single Stamp of dialect metadata.
type Variant struct {
	name              string
	metaSchemaURI     string
	keywords          Keywords
	types             *TypeChecker
	formats           *FormatChecker
	spec              *specification
	ignoreRefSiblings bool

	dialect atomic.Pointer[dialectInfo]
}

func NewVariant(name string, cfg VariantConfig) *Variant {
	v := &Variant{
		name:              name,
		metaSchemaURI:     cfg.MetaSchemaURI,
		keywords:          cfg.Keywords.Clone(),
		types:             cfg.Types,
		formats:           cfg.Formats,
		spec:              draft202012Spec,
		ignoreRefSiblings: cfg.IgnoreRefSiblings,
	}
	if cfg.Legacy {
		v.spec = draft4Spec
	}
	if v.types == nil {
		v.types = Draft202012TypeChecker
	}
	return v
}

// Extend derives a new variant from v.
func (v *Variant) Extend(name string, o Overrides) *Variant {
	keywords := v.keywords.Clone()
	for _, k := range o.Remove {
		delete(keywords, k)
	}
	for k, fn := range o.Keywords {
		keywords[k] = fn
	}
	out := &Variant{
		name:              name,
		metaSchemaURI:     v.metaSchemaURI,
		keywords:          keywords,
		types:             v.types,
		formats:           v.formats,
		spec:              v.spec,
		ignoreRefSiblings: v.ignoreRefSiblings,
	}
	if o.MetaSchemaURI != "" {
		out.metaSchemaURI = o.MetaSchemaURI
	}
	if o.Types != nil {
		out.types = o.Types
	}
	if o.Formats != nil {
		out.formats = o.Formats
	}
	if d := v.dialect.Load(); d != nil && o.MetaSchemaURI == "" {
		out.dialect.Store(&dialectInfo{metaSchema: d.metaSchema})
	}
	return out
}

func (v *Variant) Name() string {
	return v.name
}

func (v *Variant) String() string {
	return v.name
}

func (v *Variant) TypeChecker() *TypeChecker {
	return v.types
}

// FormatChecker is the variant's own format table. Validators only assert
// formats when built with a checker.
func (v *Variant) FormatChecker() *FormatChecker {
	return v.formats
}

func (v *Variant) Keyword(name string) (Keyword, bool) {
	fn, ok := v.keywords[name]
	return fn, ok
}

func (v *Variant) KeywordNames() []string {
	names := make([]string, 0, len(v.keywords))
	for name := range v.keywords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IDOf returns the identifier a schema declares under this variant's rules.
func (v *Variant) IDOf(schema map[string]any) string {
	return v.spec.idOf(schema)
}

// MetaSchemaURI is the identifier of the stamped metaschema, or the one the
// variant was configured with.
func (v *Variant) MetaSchemaURI() string {
	if d := v.dialect.Load(); d != nil {
		if id, ok := d.metaSchema["$id"].(string); ok {
			return specs.Normalize(id)
		}
	}
	return specs.Normalize(v.metaSchemaURI)
}

// MetaSchema returns the metaschema document, or nil when the variant has
// none.
func (v *Variant) MetaSchema() map[string]any {
	if d := v.dialect.Load(); d != nil {
		return d.metaSchema
	}
	doc, _ := specs.Lookup(v.metaSchemaURI)
	return doc
}

// Version is the label stamped at dialect registration.
func (v *Variant) Version() string {
	if d := v.dialect.Load(); d != nil {
		return d.version
	}
	return ""
}

// Stamp records dialect metadata once. It reports whether this call won.
func (v *Variant) Stamp(metaSchema map[string]any, version string) bool {
	return v.dialect.CompareAndSwap(nil, &dialectInfo{metaSchema: metaSchema, version: version})
}

var (
	metaSchemasMu sync.RWMutex
	metaSchemas   = map[string]*Variant{}
	versions      = map[string]*Variant{}
)

// Validates registers v for $schema discovery under its metaschema
// identifier and under version. The first registration of a key wins.
func Validates(version string, v *Variant) *Variant {
	metaSchemasMu.Lock()
	defer metaSchemasMu.Unlock()
	if uri := v.MetaSchemaURI(); uri != "" {
		if _, taken := metaSchemas[uri]; !taken {
			metaSchemas[uri] = v
		}
	}
	if version != "" {
		if _, taken := versions[version]; !taken {
			versions[version] = v
		}
	}
	return v
}

// ForgetVariant drops the discovery entries pointing at v.
func ForgetVariant(v *Variant) {
	metaSchemasMu.Lock()
	defer metaSchemasMu.Unlock()
	for k, registered := range metaSchemas {
		if registered == v {
			delete(metaSchemas, k)
		}
	}
	for k, registered := range versions {
		if registered == v {
			delete(versions, k)
		}
	}
}

// ValidatorFor returns the variant registered for the schema's $schema, or
// fallback.
func ValidatorFor(schema any, fallback *Variant) *Variant {
	m, ok := schema.(map[string]any)
	if !ok {
		return fallback
	}
	dialect, ok := m["$schema"].(string)
	if !ok {
		return fallback
	}
	metaSchemasMu.RLock()
	defer metaSchemasMu.RUnlock()
	if v, ok := metaSchemas[specs.Normalize(dialect)]; ok {
		return v
	}
	return fallback
}

// VariantForVersion returns the variant registered under a version label.
func VariantForVersion(version string) (*Variant, bool) {
	metaSchemasMu.RLock()
	defer metaSchemasMu.RUnlock()
	v, ok := versions[version]
	return v, ok
}
