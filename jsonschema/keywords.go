package jsonschema

import (
	"iter"
	"math"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

func none(func(*ValidationError) bool) {}

func single(err *ValidationError) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		yield(err)
	}
}

func Ref(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	ref, ok := value.(string)
	if !ok {
		return none
	}
	return v.ValidateReference(ref, instance, false)
}

func DynamicRef(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	ref, ok := value.(string)
	if !ok {
		return none
	}
	return v.ValidateReference(ref, instance, true)
}

// FindAdditionalProperties returns the keys of instance that neither
// properties nor patternProperties of schema cover, sorted.
func FindAdditionalProperties(instance, schema map[string]any) []string {
	properties, _ := AsObject(schema["properties"])
	patterns, _ := AsObject(schema["patternProperties"])
	var extras []string
	for _, key := range SortedKeys(instance) {
		if _, ok := properties[key]; ok {
			continue
		}
		if matchesAny(patterns, key) {
			continue
		}
		extras = append(extras, key)
	}
	return extras
}

func matchesAny(patterns map[string]any, key string) bool {
	for expr := range patterns {
		if ok, err := Search(expr, key); err == nil && ok {
			return true
		}
	}
	return false
}

func AdditionalProperties(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		if !ok || !v.IsType(instance, "object") {
			return
		}
		extras := FindAdditionalProperties(obj, schema)
		if _, isSchema := AsObject(value); isSchema {
			for _, extra := range extras {
				for err := range v.Descend(obj[extra], value, extra, nil) {
					if !yield(err) {
						return
					}
				}
			}
			return
		}
		if Truthy(value) || len(extras) == 0 {
			return
		}
		if patterns, ok := AsObject(schema["patternProperties"]); ok {
			verb := "do"
			if len(extras) == 1 {
				verb = "does"
			}
			yield(NewError("%s %s not match any of the regexes: %s",
				quoteAll(extras), verb, quoteAll(SortedKeys(patterns))))
			return
		}
		joined, verb := ExtrasMsg(QuoteEach(extras))
		yield(NewError("Additional properties are not allowed (%s %s unexpected)", joined, verb))
	}
}

// QuoteEach quotes every name.
func QuoteEach(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Quote(k)
	}
	return out
}

func reprAll(values []any) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = Repr(value)
	}
	return out
}

func Items(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := AsArray(instance)
		if !ok {
			return
		}
		prefix := 0
		if prefixItems, ok := AsArray(schema["prefixItems"]); ok {
			prefix = len(prefixItems)
		}
		extra := len(arr) - prefix
		if extra <= 0 {
			return
		}
		if b, ok := value.(bool); ok && !b {
			rest := Repr(arr[prefix:])
			if extra == 1 {
				rest = Repr(arr[prefix])
			}
			noun := "items"
			if prefix == 1 {
				noun = "item"
			}
			yield(NewError("Expected at most %d %s but found %d extra: %s", prefix, noun, extra, rest))
			return
		}
		for i := prefix; i < len(arr); i++ {
			for err := range v.Descend(arr[i], value, i, nil) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func PrefixItems(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := AsArray(instance)
		if !ok {
			return
		}
		subschemas, _ := AsArray(value)
		for i := 0; i < len(arr) && i < len(subschemas); i++ {
			for err := range v.Descend(arr[i], subschemas[i], i, i) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func Const(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	if Equal(instance, value) {
		return none
	}
	return single(NewError("%s was expected", Repr(value)))
}

func Contains(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := AsArray(instance)
		if !ok {
			return
		}
		minContains := 1
		if n, ok := intOf(schema["minContains"]); ok {
			minContains = n
		}
		maxContains := len(arr)
		if n, ok := intOf(schema["maxContains"]); ok {
			maxContains = n
		}
		matches := 0
		for _, item := range arr {
			if !v.isValidUnder(item, value) {
				continue
			}
			matches++
			if matches > maxContains {
				err := NewError("Too many items match the given schema (expected at most %d)", maxContains)
				err.Keyword = "maxContains"
				err.KeywordValue = schema["maxContains"]
				yield(err)
				return
			}
		}
		if matches >= minContains {
			return
		}
		if matches == 0 {
			yield(NewError("%s does not contain items matching the given schema", Repr(instance)))
			return
		}
		err := NewError("Too few items match the given schema (expected at least %d but only %d matched)", minContains, matches)
		err.Keyword = "minContains"
		err.KeywordValue = schema["minContains"]
		yield(err)
	}
}

// numbers returns the instance and the bound as floats when both are
// numbers; booleans are not.
func numbers(v *Validator, instance, bound any) (float64, float64, bool) {
	if !v.IsType(instance, "number") {
		return 0, 0, false
	}
	x, ok := AsFloat(instance)
	if !ok {
		return 0, 0, false
	}
	b, ok := AsFloat(bound)
	return x, b, ok
}

func ExclusiveMinimum(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok || x > bound {
		return none
	}
	return single(NewError("%s is less than or equal to the minimum of %s", Repr(instance), Repr(value)))
}

func ExclusiveMaximum(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok || x < bound {
		return none
	}
	return single(NewError("%s is greater than or equal to the maximum of %s", Repr(instance), Repr(value)))
}

func Minimum(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok || x >= bound {
		return none
	}
	return single(NewError("%s is less than the minimum of %s", Repr(instance), Repr(value)))
}

func Maximum(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	x, bound, ok := numbers(v, instance, value)
	if !ok || x <= bound {
		return none
	}
	return single(NewError("%s is greater than the maximum of %s", Repr(instance), Repr(value)))
}

// notMultiple decides multipleOf. Integral divisors use the float remainder;
// fractional ones check the quotient, with an exact rational fallback when it
// overflows.
func notMultiple(x, divisor float64) bool {
	if divisor == 0 {
		return false
	}
	if divisor == math.Trunc(divisor) {
		return math.Mod(x, divisor) != 0
	}
	q := x / divisor
	if !math.IsInf(q, 0) {
		return q != math.Trunc(q)
	}
	rx, rd := new(big.Rat), new(big.Rat)
	if rx.SetFloat64(x) == nil || rd.SetFloat64(divisor) == nil {
		return true
	}
	return !new(big.Rat).Quo(rx, rd).IsInt()
}

func MultipleOf(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	x, divisor, ok := numbers(v, instance, value)
	if !ok || !notMultiple(x, divisor) {
		return none
	}
	return single(NewError("%s is not a multiple of %s", Repr(instance), Repr(value)))
}

func MinItems(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	arr, ok := AsArray(instance)
	bound, okBound := intOf(value)
	if !ok || !okBound || len(arr) >= bound {
		return none
	}
	if bound == 1 {
		return single(NewError("%s should be non-empty", Repr(instance)))
	}
	return single(NewError("%s is too short", Repr(instance)))
}

func MaxItems(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	arr, ok := AsArray(instance)
	bound, okBound := intOf(value)
	if !ok || !okBound || len(arr) <= bound {
		return none
	}
	if bound == 0 {
		return single(NewError("%s is expected to be empty", Repr(instance)))
	}
	return single(NewError("%s is too long", Repr(instance)))
}

func uniq(items []any) bool {
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if Equal(items[i], items[j]) {
				return false
			}
		}
	}
	return true
}

func UniqueItems(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	arr, ok := AsArray(instance)
	if !ok || !Truthy(value) || uniq(arr) {
		return none
	}
	return single(NewError("%s has non-unique elements", Repr(instance)))
}

func Pattern(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	s, ok := instance.(string)
	expr, okExpr := value.(string)
	if !ok || !okExpr {
		return none
	}
	matched, err := Search(expr, s)
	if err != nil {
		e := NewError("%q is not a valid regular expression", expr)
		e.Cause = errors.Wrap(ErrSchemaAuthoring, err.Error())
		return single(e)
	}
	if matched {
		return none
	}
	return single(NewError("%s does not match %q", Repr(instance), expr))
}

// Format asserts only when the validator carries a format checker.
func Format(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	name, ok := value.(string)
	if !ok || v.formats == nil {
		return none
	}
	err := v.formats.Check(instance, name)
	if err == nil {
		return none
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		e := NewError("%s", fe.Message)
		e.Cause = fe.Cause
		return single(e)
	}
	e := NewError("%s", err.Error())
	e.Cause = err
	return single(e)
}

func MinLength(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	s, ok := instance.(string)
	bound, okBound := intOf(value)
	if !ok || !okBound || utf8.RuneCountInString(s) >= bound {
		return none
	}
	if bound == 1 {
		return single(NewError("%s should be non-empty", Repr(instance)))
	}
	return single(NewError("%s is too short", Repr(instance)))
}

func MaxLength(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	s, ok := instance.(string)
	bound, okBound := intOf(value)
	if !ok || !okBound || utf8.RuneCountInString(s) <= bound {
		return none
	}
	if bound == 0 {
		return single(NewError("%s is expected to be empty", Repr(instance)))
	}
	return single(NewError("%s is too long", Repr(instance)))
}

func DependentRequired(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
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
			for _, each := range stringsOf(deps[property]) {
				if _, present := obj[each]; present {
					continue
				}
				if !yield(NewError("%s is a dependency of %s", Quote(each), Quote(property))) {
					return
				}
			}
		}
	}
}

func DependentSchemas(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
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
			for err := range v.Descend(instance, deps[property], nil, property) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func Enum(_ *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	enums, _ := AsArray(value)
	for _, each := range enums {
		if Equal(each, instance) {
			return none
		}
	}
	return single(NewError("%s is not one of %s", Repr(instance), Repr(value)))
}

func Type(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	names := stringsOf(value)
	for _, name := range names {
		if v.IsType(instance, name) {
			return none
		}
	}
	return single(NewError("%s is not of type %s", Repr(instance), quoteAll(names)))
}

func Properties(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		properties, okProps := AsObject(value)
		if !ok || !okProps || !v.IsType(instance, "object") {
			return
		}
		for _, property := range SortedKeys(properties) {
			item, present := obj[property]
			if !present {
				continue
			}
			for err := range v.Descend(item, properties[property], property, property) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func PatternProperties(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		patterns, okPatterns := AsObject(value)
		if !ok || !okPatterns {
			return
		}
		keys := SortedKeys(obj)
		for _, expr := range SortedKeys(patterns) {
			for _, k := range keys {
				if matched, err := Search(expr, k); err != nil || !matched {
					continue
				}
				for err := range v.Descend(obj[k], patterns[expr], k, expr) {
					if !yield(err) {
						return
					}
				}
			}
		}
	}
}

func PropertyNames(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		if !ok {
			return
		}
		for _, property := range SortedKeys(obj) {
			for err := range v.Descend(property, value, nil, nil) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func Required(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := AsObject(instance)
		if !ok || !v.IsType(instance, "object") {
			return
		}
		for _, property := range stringsOf(value) {
			if _, present := obj[property]; present {
				continue
			}
			if !yield(NewError("%s is a required property", Quote(property))) {
				return
			}
		}
	}
}

func MinProperties(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	obj, ok := AsObject(instance)
	bound, okBound := intOf(value)
	if !ok || !okBound || len(obj) >= bound {
		return none
	}
	if bound == 1 {
		return single(NewError("%s should be non-empty", Repr(instance)))
	}
	return single(NewError("%s does not have enough properties", Repr(instance)))
}

func MaxProperties(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	obj, ok := AsObject(instance)
	bound, okBound := intOf(value)
	if !ok || !okBound || len(obj) <= bound {
		return none
	}
	if bound == 0 {
		return single(NewError("%s is expected to be empty", Repr(instance)))
	}
	return single(NewError("%s has too many properties", Repr(instance)))
}

func AllOf(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subschemas, _ := AsArray(value)
		for i, subschema := range subschemas {
			for err := range v.Descend(instance, subschema, nil, i) {
				if !yield(err) {
					return
				}
			}
		}
	}
}

func AnyOf(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subschemas, _ := AsArray(value)
		var all []*ValidationError
		for i, subschema := range subschemas {
			errs := collect(v.Descend(instance, subschema, nil, i))
			if len(errs) == 0 {
				return
			}
			all = append(all, errs...)
		}
		yield(NewError("%s is not valid under any of the given schemas", Repr(instance)).WithContext(all))
	}
}

func OneOf(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subschemas, _ := AsArray(value)
		var all []*ValidationError
		first := -1
		for i, subschema := range subschemas {
			errs := collect(v.Descend(instance, subschema, nil, i))
			if len(errs) == 0 {
				first = i
				break
			}
			all = append(all, errs...)
		}
		if first < 0 {
			yield(NewError("%s is not valid under any of the given schemas", Repr(instance)).WithContext(all))
			return
		}
		var more []string
		for _, subschema := range subschemas[first+1:] {
			if v.isValidUnder(instance, subschema) {
				more = append(more, Repr(subschema))
			}
		}
		if len(more) > 0 {
			more = append(more, Repr(subschemas[first]))
			yield(NewError("%s is valid under each of %s", Repr(instance), strings.Join(more, ", ")))
		}
	}
}

func Not(v *Validator, value, instance any, _ map[string]any) iter.Seq[*ValidationError] {
	if !v.isValidUnder(instance, value) {
		return none
	}
	return single(NewError("%s should not be valid under %s", Repr(instance), Repr(value)))
}

func If(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	if v.isValidUnder(instance, value) {
		if then, ok := schema["then"]; ok {
			return v.Descend(instance, then, nil, "then")
		}
		return none
	}
	if otherwise, ok := schema["else"]; ok {
		return v.Descend(instance, otherwise, nil, "else")
	}
	return none
}

func UnevaluatedItems(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	arr, ok := AsArray(instance)
	if !ok {
		return none
	}
	evaluated := evaluatedItemIndexes(v, arr, schema)
	var rest []any
	for i, item := range arr {
		if !evaluated[i] {
			rest = append(rest, item)
		}
	}
	if len(rest) == 0 {
		return none
	}
	joined, verb := ExtrasMsg(reprAll(rest))
	return single(NewError("Unevaluated items are not allowed (%s %s unexpected)", joined, verb))
}

func UnevaluatedProperties(v *Validator, value, instance any, schema map[string]any) iter.Seq[*ValidationError] {
	obj, ok := AsObject(instance)
	if !ok {
		return none
	}
	evaluated := evaluatedPropertyKeys(v, obj, schema)
	var rest []string
	for _, property := range SortedKeys(obj) {
		if evaluated[property] {
			continue
		}
		for range v.Descend(obj[property], value, property, property) {
			rest = append(rest, property)
			break
		}
	}
	if len(rest) == 0 {
		return none
	}
	joined, verb := ExtrasMsg(QuoteEach(rest))
	if b, ok := value.(bool); ok && !b {
		return single(NewError("Unevaluated properties are not allowed (%s %s unexpected)", joined, verb))
	}
	return single(NewError("Unevaluated properties are not valid under the given schema (%s %s unevaluated and invalid)", joined, verb))
}

// Draft202012Keywords is the keyword table of the draft 2020-12 engine.
func Draft202012Keywords() Keywords {
	return Keywords{
		"$dynamicRef":           DynamicRef,
		"$ref":                  Ref,
		"additionalProperties":  AdditionalProperties,
		"allOf":                 AllOf,
		"anyOf":                 AnyOf,
		"const":                 Const,
		"contains":              Contains,
		"dependentRequired":     DependentRequired,
		"dependentSchemas":      DependentSchemas,
		"enum":                  Enum,
		"exclusiveMaximum":      ExclusiveMaximum,
		"exclusiveMinimum":      ExclusiveMinimum,
		"format":                Format,
		"if":                    If,
		"items":                 Items,
		"maxItems":              MaxItems,
		"maxLength":             MaxLength,
		"maxProperties":         MaxProperties,
		"maximum":               Maximum,
		"minItems":              MinItems,
		"minLength":             MinLength,
		"minProperties":         MinProperties,
		"minimum":               Minimum,
		"multipleOf":            MultipleOf,
		"not":                   Not,
		"oneOf":                 OneOf,
		"pattern":               Pattern,
		"patternProperties":     PatternProperties,
		"prefixItems":           PrefixItems,
		"properties":            Properties,
		"propertyNames":         PropertyNames,
		"required":              Required,
		"type":                  Type,
		"unevaluatedItems":      UnevaluatedItems,
		"unevaluatedProperties": UnevaluatedProperties,
		"uniqueItems":           UniqueItems,
	}
}
