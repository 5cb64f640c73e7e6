package oas

import (
	"iter"

	"github.com/oarkflow/oasschema/jsonschema"
)

type seq = iter.Seq[*jsonschema.ValidationError]

func none(func(*jsonschema.ValidationError) bool) {}

func single(err *jsonschema.ValidationError) seq {
	return func(yield func(*jsonschema.ValidationError) bool) {
		yield(err)
	}
}

// Type honours nullable only when it sits on the same schema object as type.
func Type(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
	if instance == nil {
		if nullable, ok := schema["nullable"].(bool); ok && nullable {
			return none
		}
		return single(jsonschema.NewError("null for not nullable"))
	}
	return jsonschema.Type(v, value, instance, schema)
}

// Format skips null instances.
func Format(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
	if instance == nil {
		return none
	}
	return jsonschema.Format(v, value, instance, schema)
}

// Items applies one schema to every element.
func Items(v *jsonschema.Validator, value, instance any, _ map[string]any) seq {
	return func(yield func(*jsonschema.ValidationError) bool) {
		arr, ok := jsonschema.AsArray(instance)
		if !ok || !v.IsType(instance, "array") {
			return
		}
		for i, item := range arr {
			for err := range v.Descend(item, value, i, nil) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

// propertyFlags reads readOnly and writeOnly from the property's own schema.
func propertyFlags(schema map[string]any, property string) (readOnly, writeOnly bool) {
	properties, _ := jsonschema.AsObject(schema["properties"])
	prop, ok := jsonschema.AsObject(properties[property])
	if !ok || len(prop) == 0 {
		return false, false
	}
	return jsonschema.Truthy(prop["readOnly"]), jsonschema.Truthy(prop["writeOnly"])
}

// requiredWith reports every missing property that skip does not excuse.
func requiredWith(skip func(readOnly, writeOnly bool) bool) jsonschema.Keyword {
	return func(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
		return func(yield func(*jsonschema.ValidationError) bool) {
			obj, ok := jsonschema.AsObject(instance)
			if !ok || !v.IsType(instance, "object") {
				return
			}
			for _, property := range requiredNames(value) {
				if _, present := obj[property]; present {
					continue
				}
				if skip(propertyFlags(schema, property)) {
					continue
				}
				if !yield(jsonschema.NewError("%s is a required property", jsonschema.Quote(property))) {
					return
				}
			}
		}
	}
}

func requiredNames(value any) []string {
	arr, _ := jsonschema.AsArray(value)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Required excuses readOnly properties while writing and writeOnly ones
// while reading, as given by the validator's flags.
func Required(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
	return requiredWith(func(readOnly, writeOnly bool) bool {
		return (v.Write() && readOnly) || (v.Read() && writeOnly)
	})(v, value, instance, schema)
}

// ReadRequired excuses writeOnly properties.
func ReadRequired(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
	return requiredWith(func(_, writeOnly bool) bool {
		return v.Read() && writeOnly
	})(v, value, instance, schema)
}

// WriteRequired excuses readOnly properties.
var WriteRequired = requiredWith(func(readOnly, _ bool) bool {
	return readOnly
})

func AdditionalProperties(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
	return func(yield func(*jsonschema.ValidationError) bool) {
		obj, ok := jsonschema.AsObject(instance)
		if !ok || !v.IsType(instance, "object") {
			return
		}
		extras := jsonschema.FindAdditionalProperties(obj, schema)
		if len(extras) == 0 {
			return
		}
		if _, isSchema := jsonschema.AsObject(value); isSchema {
			for _, extra := range extras {
				for err := range v.Descend(obj[extra], value, extra, nil) {
					if !yield(err) {
						return
					}
				}
			}
			return
		}
		if allowed, isBool := value.(bool); isBool && !allowed {
			joined, verb := jsonschema.ExtrasMsg(jsonschema.QuoteEach(extras))
			yield(jsonschema.NewError("Additional properties are not allowed (%s %s unexpected)", joined, verb))
		}
	}
}

// plain renders instance without quoting strings.
func plain(instance any) string {
	if s, ok := instance.(string); ok {
		return s
	}
	return jsonschema.Repr(instance)
}

// ReadOnly rejects a readOnly property when the validator is writing.
func ReadOnly(v *jsonschema.Validator, value, instance any, _ map[string]any) seq {
	if !v.Write() || !jsonschema.Truthy(value) {
		return none
	}
	return single(jsonschema.NewError("Tried to write read-only property with %s", plain(instance)))
}

// WriteOnly rejects a writeOnly property when the validator is reading.
func WriteOnly(v *jsonschema.Validator, value, instance any, _ map[string]any) seq {
	if !v.Read() || !jsonschema.Truthy(value) {
		return none
	}
	return single(jsonschema.NewError("Tried to read write-only property with %s", plain(instance)))
}

// WriteReadOnly rejects any value for a readOnly property.
func WriteReadOnly(_ *jsonschema.Validator, value, instance any, _ map[string]any) seq {
	if !jsonschema.Truthy(value) {
		return none
	}
	return single(jsonschema.NewError("Tried to write read-only property with %s", plain(instance)))
}

// ReadWriteOnly rejects any value for a writeOnly property.
func ReadWriteOnly(_ *jsonschema.Validator, value, instance any, _ map[string]any) seq {
	if !jsonschema.Truthy(value) {
		return none
	}
	return single(jsonschema.NewError("Tried to read write-only property with %s", plain(instance)))
}

// NotImplemented accepts everything. It shadows keywords that are
// annotations in OpenAPI.
func NotImplemented(*jsonschema.Validator, any, any, map[string]any) seq {
	return none
}

func withDiscriminator(generic jsonschema.Keyword) jsonschema.Keyword {
	return func(v *jsonschema.Validator, value, instance any, schema map[string]any) seq {
		if _, ok := schema["discriminator"]; !ok {
			return generic(v, value, instance, schema)
		}
		return Discriminator(v, instance, schema)
	}
}

var (
	AllOf = withDiscriminator(jsonschema.AllOf)
	AnyOf = withDiscriminator(jsonschema.AnyOf)
	OneOf = withDiscriminator(jsonschema.OneOf)
)
