package jsonschema

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/jsonschema/specs"
)

type options struct {
	registry *Registry
	formats  *FormatChecker
	read     bool
	write    bool
}

type Option func(*options)

// WithRegistry resolves references through registry instead of
// DefaultRegistry.
func WithRegistry(registry *Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithFormatChecker asserts formats with fc. Without it formats are
// annotations only.
func WithFormatChecker(fc *FormatChecker) Option {
	return func(o *options) {
		o.formats = fc
	}
}

// WithReadWrite sets the read/write context flags consulted by keywords that
// accept them. Both default to true, meaning the context is unknown.
func WithReadWrite(read, write bool) Option {
	return func(o *options) {
		o.read = read
		o.write = write
	}
}

// DescribeOptions reports what opts configure. Registries and format
// checkers are returned as the pointers given, so callers can key on them.
func DescribeOptions(opts ...Option) map[string]any {
	o := options{read: true, write: true}
	for _, opt := range opts {
		opt(&o)
	}
	return map[string]any{
		"registry": o.registry,
		"formats":  o.formats,
		"read":     o.read,
		"write":    o.write,
	}
}

// Validator evaluates instances against one schema. It is immutable and safe
// for concurrent use.
type Validator struct {
	variant  *Variant
	schema   any
	root     *Registry
	resolver *Resolver
	formats  *FormatChecker
	read     bool
	write    bool
}

// New builds a validator for schema.
func (v *Variant) New(schema any, opts ...Option) *Validator {
	o := options{read: true, write: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	base := ""
	if m, ok := schema.(map[string]any); ok {
		if id := v.spec.idOf(m); id != "" {
			base = specs.Normalize(stripFragment(id))
		}
	}
	root := NewRegistry(WithParent(o.registry))
	root.add(base, schema, specFor(schema, v.spec))
	return &Validator{
		variant:  v,
		schema:   schema,
		root:     root,
		resolver: newResolver(base, root),
		formats:  o.formats,
		read:     o.read,
		write:    o.write,
	}
}

func (v *Validator) Variant() *Variant {
	return v.variant
}

func (v *Validator) Schema() any {
	return v.schema
}

func (v *Validator) Resolver() *Resolver {
	return v.resolver
}

func (v *Validator) FormatChecker() *FormatChecker {
	return v.formats
}

// Read reports the read-context flag.
func (v *Validator) Read() bool {
	return v.read
}

// Write reports the write-context flag.
func (v *Validator) Write() bool {
	return v.write
}

// WithSchema returns a validator bound to schema, which must be structurally
// equal to the current one. The resource index built at construction is
// reused; references into the root document resolve against schema itself.
func (v *Validator) WithSchema(schema any) *Validator {
	base := v.resolver.base
	root := NewRegistry(WithParent(v.root.parent))
	v.root.mu.RLock()
	for uri, res := range v.root.resources {
		if uri == base {
			res = &resource{uri: res.uri, contents: schema, anchors: res.anchors}
		}
		root.resources[uri] = res
	}
	v.root.mu.RUnlock()
	out := *v
	out.schema = schema
	out.root = root
	out.resolver = newResolver(base, root)
	return &out
}

func (v *Validator) withResolver(r *Resolver) *Validator {
	if r == v.resolver {
		return v
	}
	out := *v
	out.resolver = r
	return &out
}

// IsType checks instance against a type name with the variant's type table.
func (v *Validator) IsType(instance any, name string) bool {
	return v.variant.types.IsType(instance, name)
}

// IterErrors lazily evaluates instance against the root schema. Every call
// is a fresh traversal.
func (v *Validator) IterErrors(instance any) iter.Seq[*ValidationError] {
	return v.evaluate(instance, v.schema)
}

// IsValid reports whether instance passes, stopping at the first failure.
func (v *Validator) IsValid(instance any) bool {
	return v.isValidUnder(instance, v.schema)
}

// Validate returns the best matching error, or nil.
func (v *Validator) Validate(instance any) error {
	if best := BestMatch(v.IterErrors(instance)); best != nil {
		return best
	}
	return nil
}

// Descend evaluates a subschema and prefixes the resulting error paths. A nil
// path or schemaPath adds no segment.
func (v *Validator) Descend(instance, schema any, path, schemaPath any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		for err := range v.evaluate(instance, schema) {
			if path != nil {
				err.prependPath(path)
			}
			if schemaPath != nil {
				err.prependSchemaPath(schemaPath)
			}
			if !yield(err) {
				return
			}
		}
	}
}

func (v *Validator) isValidUnder(instance, schema any) bool {
	for range v.evaluate(instance, schema) {
		return false
	}
	return true
}

// collect drains a sequence.
func collect(seq iter.Seq[*ValidationError]) []*ValidationError {
	var out []*ValidationError
	for err := range seq {
		out = append(out, err)
	}
	return out
}

func (v *Validator) evaluate(instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		switch s := schema.(type) {
		case bool:
			if !s {
				yield(&ValidationError{
					Message:      fmt.Sprintf("False schema does not allow %s", Repr(instance)),
					Keyword:      "false",
					KeywordValue: false,
					Instance:     instance,
					Schema:       schema,
					types:        v.variant.types,
				})
			}
			return
		case map[string]any:
			v.evaluateObject(instance, s, yield)
		default:
			m, ok := AsObject(schema)
			if !ok {
				yield(&ValidationError{
					Message:  fmt.Sprintf("%s is not a valid schema", Repr(schema)),
					Instance: instance,
					Schema:   schema,
					Cause:    errors.Wrap(ErrSchemaAuthoring, "schema must be an object or a boolean"),
				})
				return
			}
			v.evaluateObject(instance, m, yield)
		}
	}
}

func (v *Validator) evaluateObject(instance any, schema map[string]any, yield func(*ValidationError) bool) {
	scoped := v
	if id := v.variant.spec.idOf(schema); id != "" {
		scoped = v.withResolver(v.resolver.InSubresource(id))
	}
	var keys []string
	if _, ok := schema["$ref"]; ok && v.variant.ignoreRefSiblings {
		keys = []string{"$ref"}
	} else {
		keys = SortedKeys(schema)
	}
	for _, k := range keys {
		fn, ok := v.variant.keywords[k]
		if !ok {
			continue
		}
		value := schema[k]
		for err := range fn(scoped, value, instance, schema) {
			if err.Schema == nil {
				if err.Keyword == "" {
					err.Keyword = k
					err.KeywordValue = value
				}
				err.Instance = instance
				err.Schema = schema
			}
			if err.types == nil {
				err.types = v.variant.types
			}
			if k != "if" && k != "$ref" {
				err.prependSchemaPath(k)
			}
			if !yield(err) {
				return
			}
		}
	}
}

// ValidateReference evaluates instance against the target of ref. A ref that
// does not resolve becomes a single error carrying the resolver's fault.
func (v *Validator) ValidateReference(ref string, instance any, dynamic bool) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		lookup := v.resolver.Lookup
		if dynamic {
			lookup = v.resolver.LookupDynamic
		}
		resolved, err := lookup(ref)
		if err != nil {
			yield(&ValidationError{
				Message: fmt.Sprintf("reference %s could not be resolved", Quote(ref)),
				Cause:   err,
			})
			return
		}
		for e := range v.withResolver(resolved.Resolver).evaluate(instance, resolved.Contents) {
			if !yield(e) {
				return
			}
		}
	}
}

// CheckSchema validates schema against the variant's metaschema, resolving
// metaschema references only through registry. A nil registry means
// Specifications().
func CheckSchema(variant *Variant, schema any, registry *Registry) error {
	meta := variant.MetaSchema()
	if meta == nil {
		return errors.Wrapf(ErrNoMetaSchema, "variant %s", variant.Name())
	}
	if registry == nil {
		registry = Specifications()
	}
	metaVariant := ValidatorFor(meta, variant)
	validator := metaVariant.New(meta, WithRegistry(registry), WithFormatChecker(metaVariant.FormatChecker()))
	if best := BestMatch(validator.IterErrors(schema)); best != nil {
		return newSchemaError(best)
	}
	return nil
}
