package specs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, uri := range []string{
		Draft4,
		Draft4 + "#",
		Draft202012,
		Draft202012 + "#",
		"https://json-schema.org/draft/2020-12/meta/core",
		"https://json-schema.org/draft/2020-12/meta/applicator",
		"https://json-schema.org/draft/2020-12/meta/unevaluated",
		"https://json-schema.org/draft/2020-12/meta/validation",
		"https://json-schema.org/draft/2020-12/meta/meta-data",
		"https://json-schema.org/draft/2020-12/meta/format-annotation",
		"https://json-schema.org/draft/2020-12/meta/content",
		OAS31Dialect,
		OAS31Meta,
		OAS32Dialect,
		OAS32Meta,
	} {
		doc, ok := Lookup(uri)
		require.True(t, ok, uri)
		assert.NotEmpty(t, doc, uri)
	}

	_, ok := Lookup("https://example.com/unknown")
	assert.False(t, ok)
}

func TestURIs(t *testing.T) {
	assert.Len(t, URIs(), 13)
}

func TestDialectsReferenceTheirVocabulary(t *testing.T) {
	doc := MustLookup(OAS32Dialect)
	assert.Equal(t, Draft202012, doc["$schema"])
	allOf := doc["allOf"].([]any)
	require.Len(t, allOf, 2)
	assert.Equal(t, OAS32Meta, allOf[1].(map[string]any)["$ref"])
}
