package jsonschema

import (
	"sort"
)

// TypeFunc reports whether an instance belongs to a JSON type.
type TypeFunc func(instance any) bool

// TypeChecker maps JSON type names to predicates. It is immutable; Redefine
// returns a copy.
type TypeChecker struct {
	checks map[string]TypeFunc
}

func NewTypeChecker(checks map[string]TypeFunc) *TypeChecker {
	tc := &TypeChecker{checks: make(map[string]TypeFunc, len(checks))}
	for name, fn := range checks {
		tc.checks[name] = fn
	}
	return tc
}

// IsType reports whether instance is of the named type. Unknown names never
// match; use Has to tell them apart.
func (tc *TypeChecker) IsType(instance any, name string) bool {
	fn, ok := tc.checks[name]
	return ok && fn(instance)
}

func (tc *TypeChecker) Has(name string) bool {
	_, ok := tc.checks[name]
	return ok
}

// Redefine returns a checker where name is decided by fn.
func (tc *TypeChecker) Redefine(name string, fn TypeFunc) *TypeChecker {
	out := NewTypeChecker(tc.checks)
	out.checks[name] = fn
	return out
}

func (tc *TypeChecker) Names() []string {
	names := make([]string, 0, len(tc.checks))
	for name := range tc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func IsNull(instance any) bool {
	return instance == nil
}

func IsBool(instance any) bool {
	_, ok := instance.(bool)
	return ok
}

// IsInteger accepts Go integers and integral floats, since decoded JSON
// carries every number as float64.
func IsInteger(instance any) bool {
	return IsIntegral(instance)
}

func IsNumber(instance any) bool {
	_, ok := AsFloat(instance)
	return ok
}

func IsString(instance any) bool {
	_, ok := instance.(string)
	return ok
}

// IsBytes reports raw binary payloads.
func IsBytes(instance any) bool {
	_, ok := instance.([]byte)
	return ok
}

func IsArray(instance any) bool {
	_, ok := AsArray(instance)
	return ok
}

func IsObject(instance any) bool {
	_, ok := AsObject(instance)
	return ok
}

var (
	Draft4TypeChecker = NewTypeChecker(map[string]TypeFunc{
		"array":   IsArray,
		"boolean": IsBool,
		"integer": IsInteger,
		"null":    IsNull,
		"number":  IsNumber,
		"object":  IsObject,
		"string":  IsString,
	})
	Draft202012TypeChecker = NewTypeChecker(Draft4TypeChecker.checks)
)
