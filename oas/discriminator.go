package oas

import (
	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/jsonschema"
)

// Discriminator picks the one schema the discriminating property names and
// validates instance against it. It replaces allOf, anyOf and oneOf on a
// schema that carries a discriminator.
func Discriminator(v *jsonschema.Validator, instance any, schema map[string]any) seq {
	return func(yield func(*jsonschema.ValidationError) bool) {
		obj, ok := jsonschema.AsObject(instance)
		if !ok || !v.IsType(instance, "object") {
			yield(jsonschema.NewError("%s is not of type %s", jsonschema.Repr(instance), jsonschema.Quote("object")))
			return
		}
		discriminator, _ := jsonschema.AsObject(schema["discriminator"])
		property, _ := discriminator["propertyName"].(string)
		value := obj[property]
		if !jsonschema.Truthy(value) {
			yield(jsonschema.NewError("%s does not contain discriminating property %s",
				jsonschema.Repr(instance), jsonschema.Quote(property)))
			return
		}

		ref := "#/components/schemas/" + plain(value)
		mapping, _ := jsonschema.AsObject(discriminator["mapping"])
		// Mapping keys are strings, so only a string value can select one.
		name, _ := value.(string)
		if mapped, ok := mapping[name]; ok && name != "" && jsonschema.Truthy(mapped) {
			target, isString := mapped.(string)
			if !isString {
				err := jsonschema.NewError("%s mapped value for %s should be a string, was %s",
					jsonschema.Repr(instance), jsonschema.Repr(value), jsonschema.Repr(mapped))
				err.Cause = errors.Wrapf(jsonschema.ErrSchemaAuthoring, "discriminator mapping for %q", name)
				yield(err)
				return
			}
			ref = target
		}

		if _, err := v.Resolver().Lookup(ref); err != nil {
			verr := jsonschema.NewError("%s reference %s could not be resolved", jsonschema.Repr(instance), jsonschema.Quote(ref))
			verr.Cause = err
			yield(verr)
			return
		}
		for err := range v.Descend(instance, map[string]any{"$ref": ref}, nil, nil) {
			if !yield(err) {
				return
			}
		}
	}
}
