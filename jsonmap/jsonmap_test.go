package jsonmap

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Audit struct {
	CreatedBy string `json:"created_by"`
	Revision  int    `json:"revision"`
}

type Color string

type Pet struct {
	Audit
	Name     string            `json:"name"`
	Color    Color             `json:"color,omitempty"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels,omitempty"`
	Owner    *Owner            `json:"owner"`
	Born     time.Time         `json:"born"`
	Photo    []byte            `json:"photo,omitempty"`
	Internal string            `json:"-"`
	secret   string
	Revision string `json:"revision"`
}

type Owner struct {
	ID int64 `json:"id"`
}

func TestNormalize_Struct(t *testing.T) {
	born := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	pet := Pet{
		Audit:    Audit{CreatedBy: "ops", Revision: 4},
		Name:     "Rex",
		Tags:     []string{"a", "b"},
		Owner:    &Owner{ID: 7},
		Born:     born,
		Internal: "hidden",
		secret:   "hidden",
		Revision: "r2",
	}

	out, err := Normalize(pet)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"created_by": "ops",
		"name":       "Rex",
		"tags":       []any{"a", "b"},
		"owner":      map[string]any{"id": int64(7)},
		"born":       "2020-01-02T03:04:05Z",
		"revision":   "r2",
	}, out)

	out, err = Normalize(&Pet{Name: "Tom", Color: "grey", Photo: []byte("x")})
	require.NoError(t, err)
	obj := out.(map[string]any)
	assert.Equal(t, "grey", obj["color"])
	assert.Equal(t, []byte("x"), obj["photo"])
	assert.Nil(t, obj["owner"])
	assert.Nil(t, obj["tags"])
}

func TestNormalize_DataModelUnchanged(t *testing.T) {
	obj := map[string]any{"a": []any{1.0, "x", nil}, "b": map[string]any{"c": true}}
	out, err := Normalize(obj)
	require.NoError(t, err)
	assert.Equal(t, obj, out)

	out, changed, err := normalize(obj)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, obj, out)
}

func TestNormalize_CopiesOnWrite(t *testing.T) {
	obj := map[string]any{"keep": "x", "owner": Owner{ID: 1}}
	out, err := Normalize(obj)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"keep": "x", "owner": map[string]any{"id": int64(1)}}, out)
	assert.Equal(t, Owner{ID: 1}, obj["owner"])
}

func TestNormalize_TypedContainers(t *testing.T) {
	out, err := Normalize(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, out)

	out, err = Normalize([2]Color{"red", "blue"})
	require.NoError(t, err)
	assert.Equal(t, []any{"red", "blue"}, out)

	var nilPtr *Owner
	out, err = Normalize(nilPtr)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = Normalize(map[string]any{"n": json.Number("12345678901234567890")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("12345678901234567890")}, out)

	keyed := map[int]string{1: "a"}
	out, err = Normalize(keyed)
	require.NoError(t, err)
	assert.Equal(t, keyed, out)
}

func TestNormalize_Random(t *testing.T) {
	for i := 0; i < 10; i++ {
		var owner Owner
		require.NoError(t, gofakeit.Struct(&owner))
		out, err := Normalize(owner)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": owner.ID}, out)
	}
}

type failing struct{}

func (failing) MarshalJSON() ([]byte, error) {
	return []byte(`{`), nil
}

func TestNormalize_MarshalerErrors(t *testing.T) {
	_, err := Normalize(map[string]any{"bad": failing{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "bad"`)
}

func BenchmarkNormalize_DataModel(b *testing.B) {
	obj := map[string]any{"a": []any{1.0, "x"}, "b": map[string]any{"c": true}}
	for i := 0; i < b.N; i++ {
		if _, err := Normalize(obj); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalize_Struct(b *testing.B) {
	pet := Pet{Name: "Rex", Tags: []string{"a"}, Owner: &Owner{ID: 1}}
	for i := 0; i < b.N; i++ {
		if _, err := Normalize(pet); err != nil {
			b.Fatal(err)
		}
	}
}
