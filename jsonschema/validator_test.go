package jsonschema

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/oasschema/jsonschema/specs"
)

func TestDraft202012_Messages(t *testing.T) {
	tests := []struct {
		name     string
		schema   any
		instance any
		message  string
	}{
		{"type", map[string]any{"type": "string"}, 1.0, "1 is not of type 'string'"},
		{"type list", map[string]any{"type": []any{"string", "null"}}, true, "true is not of type 'string', 'null'"},
		{"required", map[string]any{"required": []any{"a"}}, map[string]any{}, "'a' is a required property"},
		{"minLength", map[string]any{"minLength": 2.0}, "a", `"a" is too short`},
		{"minLength one", map[string]any{"minLength": 1.0}, "", `"" should be non-empty`},
		{"maxLength", map[string]any{"maxLength": 1.0}, "ab", `"ab" is too long`},
		{"maxItems zero", map[string]any{"maxItems": 0.0}, []any{1.0}, "[1] is expected to be empty"},
		{"minProperties", map[string]any{"minProperties": 2.0}, map[string]any{"a": 1.0}, `{"a":1} does not have enough properties`},
		{"maxProperties", map[string]any{"maxProperties": 1.0}, map[string]any{"a": 1.0, "b": 2.0}, `{"a":1,"b":2} has too many properties`},
		{"enum", map[string]any{"enum": []any{"a", "b"}}, "c", `"c" is not one of ["a","b"]`},
		{"const", map[string]any{"const": "x"}, "y", `"x" was expected`},
		{"multipleOf", map[string]any{"multipleOf": 2.0}, 7.0, "7 is not a multiple of 2"},
		{"minimum", map[string]any{"minimum": 2.0}, 1.0, "1 is less than the minimum of 2"},
		{"maximum", map[string]any{"maximum": 2.0}, 3.0, "3 is greater than the maximum of 2"},
		{"exclusiveMinimum", map[string]any{"exclusiveMinimum": 1.0}, 1.0, "1 is less than or equal to the minimum of 1"},
		{"exclusiveMaximum", map[string]any{"exclusiveMaximum": 1.0}, 1.0, "1 is greater than or equal to the maximum of 1"},
		{"uniqueItems", map[string]any{"uniqueItems": true}, []any{1.0, 1.0}, "[1,1] has non-unique elements"},
		{"pattern", map[string]any{"pattern": "^a"}, "b", `"b" does not match "^a"`},
		{
			"additionalProperties",
			map[string]any{"properties": map[string]any{"a": map[string]any{}}, "additionalProperties": false},
			map[string]any{"a": 1.0, "b": 2.0, "c": 3.0},
			"Additional properties are not allowed ('b', 'c' were unexpected)",
		},
		{
			"additionalProperties with patterns",
			map[string]any{"patternProperties": map[string]any{"^x-": map[string]any{}}, "additionalProperties": false},
			map[string]any{"b": 2.0},
			"'b' does not match any of the regexes: '^x-'",
		},
		{
			"items after prefixItems",
			map[string]any{"prefixItems": []any{map[string]any{}}, "items": false},
			[]any{1.0, 2.0},
			"Expected at most 1 item but found 1 extra: 2",
		},
		{"contains", map[string]any{"contains": map[string]any{"type": "string"}}, []any{1.0}, "[1] does not contain items matching the given schema"},
		{
			"maxContains",
			map[string]any{"contains": map[string]any{"type": "string"}, "maxContains": 1.0},
			[]any{"a", "b"},
			"Too many items match the given schema (expected at most 1)",
		},
		{
			"unevaluatedProperties",
			map[string]any{"properties": map[string]any{"a": map[string]any{}}, "unevaluatedProperties": false},
			map[string]any{"a": 1.0, "b": 2.0},
			"Unevaluated properties are not allowed ('b' was unexpected)",
		},
		{
			"unevaluatedItems",
			map[string]any{"prefixItems": []any{map[string]any{}}, "unevaluatedItems": false},
			[]any{1.0, "x"},
			`Unevaluated items are not allowed ("x" was unexpected)`,
		},
		{"dependentRequired", map[string]any{"dependentRequired": map[string]any{"a": []any{"b"}}}, map[string]any{"a": 1.0}, "'b' is a dependency of 'a'"},
		{"not", map[string]any{"not": map[string]any{"type": "string"}}, "x", `"x" should not be valid under {"type":"string"}`},
		{"false schema", false, 1.0, "False schema does not allow 1"},
		{
			"oneOf twice",
			map[string]any{"oneOf": []any{map[string]any{"type": "string"}, map[string]any{"minLength": 1.0}}},
			"x",
			`"x" is valid under each of {"minLength":1}, {"type":"string"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Draft202012.New(tt.schema).Validate(tt.instance)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestDraft202012_Valid(t *testing.T) {
	tests := []struct {
		name     string
		schema   any
		instance any
	}{
		{"true schema", true, "anything"},
		{"integral float is integer", map[string]any{"type": "integer"}, 3.0},
		{"if then", map[string]any{
			"if":   map[string]any{"type": "string"},
			"then": map[string]any{"minLength": 1.0},
			"else": map[string]any{"type": "number"},
		}, 4.0},
		{"unevaluated through allOf", map[string]any{
			"allOf":                 []any{map[string]any{"properties": map[string]any{"b": map[string]any{}}}},
			"properties":            map[string]any{"a": map[string]any{}},
			"unevaluatedProperties": false,
		}, map[string]any{"a": 1.0, "b": 2.0}},
		{"fractional multipleOf", map[string]any{"multipleOf": 0.5}, 2.5},
		{"minContains", map[string]any{"contains": map[string]any{"const": 1.0}, "minContains": 2.0}, []any{1.0, 2.0, 1.0}},
		{"format is an annotation", map[string]any{"format": "date"}, "not a date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Draft202012.New(tt.schema).Validate(tt.instance))
			assert.True(t, Draft202012.New(tt.schema).IsValid(tt.instance))
		})
	}
}

func TestBestMatch_TieReturnsParent(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"oneOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "integer"},
			}},
		},
	}
	err := Draft202012.New(schema).Validate(map[string]any{"a": true})
	require.Error(t, err)
	assert.Equal(t, "true is not valid under any of the given schemas (at $.a)", err.Error())
}

func TestBestMatch_PrefersDeeperBranch(t *testing.T) {
	schema := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "object", "properties": map[string]any{"x": map[string]any{"type": "string"}}},
			map[string]any{"type": "string"},
		},
	}
	err := Draft202012.New(schema).Validate(map[string]any{"x": 1.0})
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "1 is not of type 'string'", ve.Message)
	assert.Equal(t, []any{"x"}, ve.AbsolutePath())
	assert.Equal(t, []any{"anyOf", 0, "properties", "x", "type"}, ve.AbsoluteSchemaPath())
}

func TestRef_Local(t *testing.T) {
	schema := map[string]any{
		"$defs":      map[string]any{"n": map[string]any{"type": "integer"}},
		"properties": map[string]any{"a": map[string]any{"$ref": "#/$defs/n"}},
	}
	v := Draft202012.New(schema)
	assert.True(t, v.IsValid(map[string]any{"a": 1.0}))

	var ve *ValidationError
	require.True(t, errors.As(v.Validate(map[string]any{"a": "x"}), &ve))
	assert.Equal(t, `"x" is not of type 'integer'`, ve.Message)
	assert.Equal(t, []any{"properties", "a", "type"}, ve.AbsoluteSchemaPath())
}

func TestRef_Recursive(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":     map[string]any{"type": "string"},
			"children": map[string]any{"type": "array", "items": map[string]any{"$ref": "#"}},
		},
	}
	v := Draft202012.New(schema)
	tree := map[string]any{"name": "root", "children": []any{
		map[string]any{"name": "leaf", "children": []any{}},
	}}
	assert.True(t, v.IsValid(tree))

	tree["children"].([]any)[0].(map[string]any)["name"] = 3.0
	err := v.Validate(tree)
	require.Error(t, err)
	assert.Equal(t, "3 is not of type 'string' (at $.children[0].name)", err.Error())
}

func TestRef_Unresolvable(t *testing.T) {
	err := Draft202012.New(map[string]any{"$ref": "#/nope"}).Validate(map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "reference '#/nope' could not be resolved", err.Error())
	assert.True(t, errors.Is(err, ErrUnresolvable))

	var re *ReferenceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "#/nope", re.Ref)
}

func TestRef_Anchor(t *testing.T) {
	schema := map[string]any{
		"$defs":      map[string]any{"pos": map[string]any{"$anchor": "positive", "minimum": 1.0}},
		"properties": map[string]any{"n": map[string]any{"$ref": "#positive"}},
	}
	v := Draft202012.New(schema)
	assert.True(t, v.IsValid(map[string]any{"n": 2.0}))
	assert.False(t, v.IsValid(map[string]any{"n": 0.0}))
}

func TestRef_EmbeddedResource(t *testing.T) {
	schema := map[string]any{
		"$id": "https://example.com/root.json",
		"$defs": map[string]any{
			"item": map[string]any{
				"$id":  "item.json",
				"type": "string",
			},
		},
		"items": map[string]any{"$ref": "item.json"},
	}
	v := Draft202012.New(schema, WithRegistry(NewRegistry()))
	assert.True(t, v.IsValid([]any{"a"}))
	assert.False(t, v.IsValid([]any{1.0}))
}

func TestRegistry_NoRetrieverNeverFetches(t *testing.T) {
	v := Draft202012.New(map[string]any{"$ref": "https://example.com/x.json"}, WithRegistry(NewRegistry()))
	err := v.Validate(map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvable))
}

func TestRegistry_Retriever(t *testing.T) {
	calls := 0
	reg := NewRegistry(WithRetriever(func(uri string) (any, error) {
		calls++
		assert.Equal(t, "https://example.com/int.json", uri)
		return map[string]any{"type": "integer"}, nil
	}))
	v := Draft202012.New(map[string]any{"$ref": "https://example.com/int.json"}, WithRegistry(reg))
	assert.True(t, v.IsValid(1.0))
	assert.False(t, v.IsValid("x"))
	assert.Equal(t, 1, calls)
	assert.True(t, reg.Retrieves())
}

func TestRegistry_Add(t *testing.T) {
	reg := NewRegistry()
	reg.Add("https://example.com/s.json", map[string]any{
		"$defs": map[string]any{"n": map[string]any{"$anchor": "n", "type": "number"}},
		"type":  "string",
	})
	assert.Equal(t, 1, reg.Len())

	v := Draft202012.New(map[string]any{"$ref": "https://example.com/s.json#n"}, WithRegistry(reg))
	assert.True(t, v.IsValid(1.5))
	assert.False(t, v.IsValid("x"))
}

func TestWithSchema_ResolvesAgainstNewDocument(t *testing.T) {
	schema := map[string]any{
		"$defs":      map[string]any{"s": map[string]any{"type": "string"}},
		"properties": map[string]any{"a": map[string]any{"$ref": "#/$defs/s"}},
	}
	v := Draft202012.New(schema)
	copied := map[string]any{
		"$defs":      map[string]any{"s": map[string]any{"type": "string"}},
		"properties": map[string]any{"a": map[string]any{"$ref": "#/$defs/s"}},
	}
	rebound := v.WithSchema(copied)
	assert.Equal(t, copied, rebound.Schema())
	assert.False(t, rebound.IsValid(map[string]any{"a": 1.0}))
	assert.True(t, rebound.IsValid(map[string]any{"a": "x"}))
}

func TestDraft4(t *testing.T) {
	t.Run("ref hides siblings", func(t *testing.T) {
		schema := map[string]any{
			"definitions": map[string]any{"s": map[string]any{"type": "string"}},
			"$ref":        "#/definitions/s",
			"minLength":   5.0,
		}
		assert.True(t, Draft4.New(schema).IsValid("ab"))
	})
	t.Run("boolean exclusiveMaximum", func(t *testing.T) {
		schema := map[string]any{"maximum": 3.0, "exclusiveMaximum": true}
		err := Draft4.New(schema).Validate(3.0)
		require.Error(t, err)
		assert.Equal(t, "3 is greater than or equal to the maximum of 3", err.Error())
	})
	t.Run("positional items", func(t *testing.T) {
		schema := map[string]any{
			"items":           []any{map[string]any{"type": "string"}},
			"additionalItems": false,
		}
		err := Draft4.New(schema).Validate([]any{"a", 1.0, 2.0})
		require.Error(t, err)
		assert.Equal(t, "Additional items are not allowed (1, 2 were unexpected)", err.Error())
	})
	t.Run("dependencies", func(t *testing.T) {
		schema := map[string]any{"dependencies": map[string]any{"a": []any{"b"}}}
		err := Draft4.New(schema).Validate(map[string]any{"a": 1.0})
		require.Error(t, err)
		assert.Equal(t, "'b' is a dependency of 'a'", err.Error())
	})
	t.Run("legacy id anchor", func(t *testing.T) {
		schema := map[string]any{
			"definitions": map[string]any{"n": map[string]any{"id": "#num", "type": "number"}},
			"items":       map[string]any{"$ref": "#num"},
		}
		v := Draft4.New(schema)
		assert.True(t, v.IsValid([]any{1.0}))
		assert.False(t, v.IsValid([]any{"x"}))
	})
}

func TestCheckSchema(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, CheckSchema(Draft202012, map[string]any{"type": "string", "minLength": 1.0}, nil))
		assert.NoError(t, CheckSchema(Draft4, map[string]any{"type": "string", "minLength": 1.0}, nil))
	})
	t.Run("top level", func(t *testing.T) {
		err := CheckSchema(Draft202012, map[string]any{"type": 12.0}, nil)
		var se *SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, []any{"type"}, se.Path)

		var ve *ValidationError
		assert.False(t, errors.As(err, &ve))
	})
	t.Run("nested through dynamic ref", func(t *testing.T) {
		schema := map[string]any{"properties": map[string]any{"a": map[string]any{"minLength": -1.0}}}
		err := CheckSchema(Draft202012, schema, nil)
		var se *SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, []any{"properties", "a", "minLength"}, se.Path)
	})
	t.Run("draft4", func(t *testing.T) {
		err := CheckSchema(Draft4, map[string]any{"required": []any{}}, nil)
		var se *SchemaError
		require.True(t, errors.As(err, &se))
		assert.Contains(t, se.Error(), "invalid schema: ")
	})
	t.Run("no metaschema", func(t *testing.T) {
		bare := NewVariant("Bare", VariantConfig{Keywords: Draft202012Keywords()})
		assert.True(t, errors.Is(CheckSchema(bare, map[string]any{}, nil), ErrNoMetaSchema))
	})
}

func TestVariant_Extend(t *testing.T) {
	noMin := Draft202012.Extend("NoMinLength", Overrides{Remove: []string{"minLength"}})
	assert.True(t, noMin.New(map[string]any{"minLength": 5.0}).IsValid("a"))
	assert.False(t, Draft202012.New(map[string]any{"minLength": 5.0}).IsValid("a"))

	_, ok := noMin.Keyword("minLength")
	assert.False(t, ok)
	assert.Equal(t, specs.Draft202012, noMin.MetaSchemaURI())
}

func TestVariant_StampOnce(t *testing.T) {
	v := Draft202012.Extend("Stamped", Overrides{})
	meta := map[string]any{"$id": "https://example.com/meta"}
	assert.True(t, v.Stamp(meta, "1.0"))
	assert.False(t, v.Stamp(map[string]any{"$id": "https://example.com/other"}, "2.0"))
	assert.Equal(t, "1.0", v.Version())
	assert.Equal(t, "https://example.com/meta", v.MetaSchemaURI())
}

func TestValidates_FirstWins(t *testing.T) {
	a := Draft202012.Extend("A", Overrides{MetaSchemaURI: "https://example.com/first-wins"})
	b := Draft202012.Extend("B", Overrides{MetaSchemaURI: "https://example.com/first-wins"})
	t.Cleanup(func() {
		ForgetVariant(a)
		ForgetVariant(b)
	})
	Validates("first-wins", a)
	Validates("first-wins", b)

	got, ok := VariantForVersion("first-wins")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Same(t, a, ValidatorFor(map[string]any{"$schema": "https://example.com/first-wins#"}, Draft202012))
}

func TestValidatorFor(t *testing.T) {
	assert.Same(t, Draft4, ValidatorFor(map[string]any{"$schema": "http://json-schema.org/draft-04/schema#"}, Draft202012))
	assert.Same(t, Draft202012, ValidatorFor(map[string]any{}, Draft202012))
	assert.Same(t, Draft4, ValidatorFor(true, Draft4))
}
