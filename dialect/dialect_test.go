package dialect_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/oasschema/dialect"
	"github.com/oarkflow/oasschema/jsonschema"
)

func TestRegistry_FirstWins(t *testing.T) {
	r := dialect.New()
	meta := map[string]any{"$id": "https://example.com/dialect/first"}
	a := jsonschema.Draft202012.Extend("A", jsonschema.Overrides{})
	b := jsonschema.Draft202012.Extend("B", jsonschema.Overrides{})
	t.Cleanup(func() {
		jsonschema.ForgetVariant(a)
		jsonschema.ForgetVariant(b)
	})

	assert.Same(t, a, r.Register(a, "https://example.com/dialect/first#", "first", meta))
	assert.Same(t, a, r.Register(b, "https://example.com/dialect/first", "first", meta))
	assert.Same(t, a, r.Register(a, "https://example.com/dialect/first", "first", meta))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup("https://example.com/dialect/first", "first")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, "first", a.Version())
	assert.Equal(t, "", b.Version())

	assert.Same(t, a, jsonschema.ValidatorFor(map[string]any{"$schema": "https://example.com/dialect/first"}, jsonschema.Draft202012))
	found, ok := jsonschema.VariantForVersion("first")
	require.True(t, ok)
	assert.Same(t, a, found)
}

func TestRegistry_LabelsAreDistinct(t *testing.T) {
	r := dialect.New()
	meta := map[string]any{"$id": "https://example.com/dialect/labels"}
	a := jsonschema.Draft202012.Extend("A", jsonschema.Overrides{})
	b := jsonschema.Draft202012.Extend("B", jsonschema.Overrides{})
	t.Cleanup(func() {
		jsonschema.ForgetVariant(a)
		jsonschema.ForgetVariant(b)
	})

	r.Register(a, "https://example.com/dialect/labels", "one", meta)
	r.Register(b, "https://example.com/dialect/labels", "two", meta)
	assert.Equal(t, []dialect.Key{
		{ID: "https://example.com/dialect/labels", Label: "one"},
		{ID: "https://example.com/dialect/labels", Label: "two"},
	}, r.Keys())

	_, ok := r.Lookup("https://example.com/dialect/labels", "three")
	assert.False(t, ok)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := dialect.New()
	meta := map[string]any{"$id": "https://example.com/dialect/race"}
	candidates := make([]*jsonschema.Variant, 16)
	for i := range candidates {
		candidates[i] = jsonschema.Draft202012.Extend("Racer", jsonschema.Overrides{})
	}
	t.Cleanup(func() {
		for _, v := range candidates {
			jsonschema.ForgetVariant(v)
		}
	})

	winners := make([]*jsonschema.Variant, len(candidates))
	var wg sync.WaitGroup
	for i, v := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			winners[i] = r.Register(v, "https://example.com/dialect/race", "race", meta)
		}()
	}
	wg.Wait()

	for _, w := range winners {
		assert.Same(t, winners[0], w)
	}
	assert.Equal(t, 1, r.Len())
}

func TestReset(t *testing.T) {
	before := dialect.Default()
	t.Cleanup(func() {
		dialect.Reset()
	})
	dialect.Reset()
	assert.NotSame(t, before, dialect.Default())
	assert.Equal(t, 0, dialect.Default().Len())
}
