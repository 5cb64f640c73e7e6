package jsonschema

import (
	"iter"
)

// DependenciesDraft4 handles draft-04 dependencies, where each entry is
// either a list of property names or a schema.
func DependenciesDraft4(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		deps, okDeps := AsObject(value)
		if !ok || !okDeps {
			return
		}
		for _, property := range SortedKeys(deps) {
			if _, present := obj[property]; !present {
				continue
			}
			dependency := deps[property]
			if _, isArray := AsArray(dependency); isArray {
				for _, each := range stringsOf(dependency) {
					if _, present := obj[each]; present {
						continue
					}
					if !yield(NewError("%s is a dependency of %s", Quote(each), Quote(property))) {
						return
					}
				}
				continue
			}
			for err := range v.Descend(instance, dependency, nil, property) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

// ItemsDraft4 accepts a single schema for every element or a list of
// positional schemas.
func ItemsDraft4(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := AsArray(instance)
		if !ok {
			return
		}
		positional, isArray := AsArray(value)
		if !isArray {
			for i, item := range arr {
				for err := range v.Descend(item, value, i, nil) {
					if !yield(err) {
						return
					}
				}
			}
			return
		}
		for i := 0; i < len(arr) && i < len(positional); i++ {
			for err := range v.Descend(arr[i], positional[i], i, i) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func AdditionalItems(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := AsArray(instance)
		if !ok {
			return
		}
		items, present := schema["items"]
		if !present {
			return
		}
		positional, isArray := AsArray(items)
		if !isArray {
			return
		}
		if _, isSchema := AsObject(value); isSchema {
			for i := len(positional); i < len(arr); i++ {
				for err := range v.Descend(arr[i], value, i, nil) {
					if !yield(err) {
						return
					}
				}
			}
			return
		}
		if Truthy(value) || len(arr) <= len(positional) {
			return
		}
		joined, verb := ExtrasMsg(reprAll(arr[len(positional):]))
		yield(NewError("Additional items are not allowed (%s %s unexpected)", joined, verb))
	}
}

// MinimumDraft4 reads the boolean exclusiveMinimum sibling.
func MinimumDraft4(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok {
		return none
	}
	failed, cmp := x < bound, "less than"
	if Truthy(schema["exclusiveMinimum"]) {
		failed, cmp = x <= bound, "less than or equal to"
	}
	if !failed {
		return none
	}
	return single(NewError("%s is %s the minimum of %s", Repr(instance), cmp, Repr(value)))
}

// MaximumDraft4 reads the boolean exclusiveMaximum sibling.
func MaximumDraft4(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok {
		return none
	}
	failed, cmp := x > bound, "greater than"
	if Truthy(schema["exclusiveMaximum"]) {
		failed, cmp = x >= bound, "greater than or equal to"
	}
	if !failed {
		return none
	}
	return single(NewError("%s is %s the maximum of %s", Repr(instance), cmp, Repr(value)))
}

// Draft4Keywords is the keyword table of the draft-04 engine.
func Draft4Keywords() Keywords {
	return Keywords{
		"$ref":                 Ref,
		"additionalItems":      AdditionalItems,
		"additionalProperties": AdditionalProperties,
		"allOf":                AllOf,
		"anyOf":                AnyOf,
		"dependencies":         DependenciesDraft4,
		"enum":                 Enum,
		"format":               Format,
		"items":                ItemsDraft4,
		"maxItems":             MaxItems,
		"maxLength":            MaxLength,
		"maxProperties":        MaxProperties,
		"maximum":              MaximumDraft4,
		"minItems":             MinItems,
		"minLength":            MinLength,
		"minProperties":        MinProperties,
		"minimum":              MinimumDraft4,
		"multipleOf":           MultipleOf,
		"not":                  Not,
		"oneOf":                OneOf,
		"pattern":              Pattern,
		"patternProperties":    PatternProperties,
		"properties":           Properties,
		"required":             Required,
		"type":                 Type,
		"uniqueItems":          UniqueItems,
	}
}
