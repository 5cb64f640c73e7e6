// Package oasschema validates instances against OpenAPI Schema Objects.
//
// Validate compiles a validator for the schema, caches it by the schema's
// structural fingerprint and reports the most relevant failure:
//
//	err := oasschema.Validate(instance, schema, oasschema.WithVariant(oas.OAS30))
//
// References are resolved locally unless WithRemoteReferences(true) is given.
package oasschema

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/oarkflow/oasschema/cache"
	"github.com/oarkflow/oasschema/jsonmap"
	"github.com/oarkflow/oasschema/jsonschema"
	"github.com/oarkflow/oasschema/logger"
	"github.com/oarkflow/oasschema/oas"
	"github.com/oarkflow/oasschema/settings"
)

// SchemaError reports a schema that does not conform to its metaschema.
type SchemaError = jsonschema.SchemaError

type options struct {
	variant          *jsonschema.Variant
	allowRemote      bool
	checkSchema      bool
	formats          *jsonschema.FormatChecker
	registry         *jsonschema.Registry
	validatorOptions []jsonschema.Option
}

type Option func(*options)

// WithVariant selects the validator variant. The default is oas.OAS32.
func WithVariant(v *jsonschema.Variant) Option {
	return func(o *options) {
		o.variant = v
	}
}

// WithRemoteReferences allows references to be retrieved over http(s) and
// from files. Off by default.
func WithRemoteReferences(allow bool) Option {
	return func(o *options) {
		o.allowRemote = allow
	}
}

// WithCheckSchema toggles validating the schema against the variant's
// metaschema before the instance. On by default.
func WithCheckSchema(check bool) Option {
	return func(o *options) {
		o.checkSchema = check
	}
}

// WithFormatChecker asserts formats with fc.
func WithFormatChecker(fc *jsonschema.FormatChecker) Option {
	return func(o *options) {
		o.formats = fc
	}
}

// WithRegistry resolves references through registry. It takes precedence
// over WithRemoteReferences.
func WithRegistry(registry *jsonschema.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithValidatorOptions passes options through to the validator
// constructor, after the ones derived from the other options.
func WithValidatorOptions(opts ...jsonschema.Option) Option {
	return func(o *options) {
		o.validatorOptions = append(o.validatorOptions, opts...)
	}
}

func newOptions(opts []Option) *options {
	o := &options{variant: oas.OAS32, checkSchema: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// constructorOptions are the options the compiled validator is built with,
// before the reference registry is chosen.
func (o *options) constructorOptions() []jsonschema.Option {
	var out []jsonschema.Option
	if o.formats != nil {
		out = append(out, jsonschema.WithFormatChecker(o.formats))
	}
	if o.registry != nil {
		out = append(out, jsonschema.WithRegistry(o.registry))
	}
	return append(out, o.validatorOptions...)
}

// registryFor returns the registry to inject when the caller supplied none.
func (o *options) registryFor(described map[string]any) (*jsonschema.Registry, bool) {
	if r, _ := described["registry"].(*jsonschema.Registry); r != nil {
		return nil, false
	}
	if o.allowRemote {
		logger.Instance().Debug("remote references enabled", "variant", o.variant.Name())
		return jsonschema.DefaultRegistry(), true
	}
	return jsonschema.NewRegistry(jsonschema.WithParent(jsonschema.Specifications())), true
}

// engine is the validation pipeline around one cache.
type engine struct {
	cache  *cache.Cache
	group  singleflight.Group
	checks prometheus.Counter
	check  func(*jsonschema.Variant, any, *jsonschema.Registry) error
}

func newEngine(reg prometheus.Registerer) *engine {
	e := &engine{
		cache: cache.New(cache.Config{}, logger.Instance(), reg),
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oasschema_compiled_validator_cache_schema_checks_total",
			Help: "Total number of schemas checked against their metaschema.",
		}),
		check: jsonschema.CheckSchema,
	}
	if reg != nil {
		reg.MustRegister(e.checks)
	}
	return e
}

var (
	defaultOnce   sync.Once
	defaultEngine *engine
)

func getEngine() *engine {
	defaultOnce.Do(func() {
		if err := logger.SetLevel(settings.MustGet().LogLevel); err != nil {
			logger.Instance().Warn("ignoring log level setting", "err", err)
		}
		defaultEngine = newEngine(nil)
	})
	return defaultEngine
}

// Validate validates instance against schema. It returns a *SchemaError when
// the schema itself is invalid, the most relevant
// *jsonschema.ValidationError when the instance is invalid, and nil
// otherwise. schema and instance are not modified. Structs are read through
// their json tags.
func Validate(instance any, schema map[string]any, opts ...Option) error {
	return getEngine().validate(instance, schema, newOptions(opts))
}

// CheckSchema validates schema against the metaschema of variant, resolving
// metaschema references from the bundled documents only.
func CheckSchema(schema map[string]any, variant *jsonschema.Variant) error {
	return getEngine().checkSchema(variant, schema)
}

// RegisterMetrics registers the metrics of the process-wide cache.
func RegisterMetrics(reg prometheus.Registerer) error {
	e := getEngine()
	if err := reg.Register(e.cache); err != nil {
		return err
	}
	return reg.Register(e.checks)
}

// Reset drops every cached validator.
func Reset() {
	getEngine().cache.Clear()
}

func (e *engine) checkSchema(variant *jsonschema.Variant, schema any) error {
	e.checks.Inc()
	return e.check(variant, schema, nil)
}

func (e *engine) validate(instance any, schema map[string]any, o *options) error {
	ctor := o.constructorOptions()
	described := jsonschema.DescribeOptions(ctor...)
	key := cache.BuildKey(schema, o.variant, nil, described, o.allowRemote)

	entry, ok := e.cache.Get(key)
	if !ok {
		compiled, err, _ := e.group.Do(key.Fingerprint(), func() (any, error) {
			if entry, ok := e.cache.Get(key); ok {
				return entry, nil
			}
			if registry, inject := o.registryFor(described); inject {
				ctor = append([]jsonschema.Option{jsonschema.WithRegistry(registry)}, ctor...)
			}
			validator := o.variant.New(snapshot(schema), ctor...)
			return e.cache.Set(key, validator, false), nil
		})
		if err != nil {
			return err
		}
		entry = compiled.(cache.Entry)
	}

	if o.checkSchema && !entry.SchemaChecked {
		_, err, _ := e.group.Do("check:"+key.Fingerprint(), func() (any, error) {
			if e.cache.Checked(key) {
				return nil, nil
			}
			logger.Instance().Debug("running deferred schema check", "key", key)
			if err := e.checkSchema(o.variant, schema); err != nil {
				return nil, err
			}
			e.cache.MarkChecked(key)
			return nil, nil
		})
		if err != nil {
			return err
		}
	}

	normalized, err := jsonmap.Normalize(instance)
	if err != nil {
		return errors.Wrap(err, "normalize instance")
	}
	return entry.Validator.WithSchema(schema).Validate(normalized)
}

// snapshot deep-copies the JSON containers of value so the cache never
// holds a map the caller could mutate.
func snapshot(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = snapshot(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = snapshot(item)
		}
		return out
	}
	return value
}
