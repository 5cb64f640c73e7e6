package jsonschema

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/oasschema/settings"
)

func TestFormatChecker_Check(t *testing.T) {
	fc := Draft202012FormatChecker

	err := fc.Check("nope", "date")
	require.Error(t, err)
	assert.Equal(t, `"nope" is not a 'date'`, err.Error())
	var fe *FormatError
	assert.True(t, errors.As(err, &fe))

	assert.NoError(t, fc.Check("2024-02-29", "date"))
	assert.NoError(t, fc.Check(12.0, "date"), "non-strings are exempt")
	assert.NoError(t, fc.Check("x", "no-such-format"), "unknown formats are ignored")
}

func TestFormatChecker_StrictUnknown(t *testing.T) {
	fc := NewFormatChecker(nil, StrictUnknown())
	err := fc.Check("x", "foo")
	require.Error(t, err)
	assert.Equal(t, "Format checker for 'foo' format not found", err.Error())
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.True(t, fc.With("foo", StringFormat(func(string) error { return nil })).StrictUnknown())
}

func TestFormatChecker_Derivation(t *testing.T) {
	base := NewFormatChecker(map[string]FormatFunc{"a": StringFormat(func(string) error { return nil })})
	extended := base.With("b", StringFormat(func(string) error { return errors.New("never") }))

	assert.False(t, base.Has("b"))
	assert.Equal(t, []string{"a", "b"}, extended.Formats())
	assert.Equal(t, []string{"b"}, extended.Without("a").Formats())
	assert.False(t, extended.Conforms("x", "b"))
}

func TestCheckUUID(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NoError(t, CheckUUID(gofakeit.UUID()))
	}
	assert.NoError(t, CheckUUID("F81D4FAE-7DEC-11D0-A765-00A0C91E6BF6"))
	assert.Error(t, CheckUUID("f81d4fae7dec11d0a76500a0c91e6bf6"))
	assert.Error(t, CheckUUID("{f81d4fae-7dec-11d0-a765-00a0c91e6bf6}"))
	assert.Error(t, CheckUUID("not-a-uuid"))
}

func TestCheckDate(t *testing.T) {
	assert.NoError(t, CheckDate("2020-01-31"))
	assert.Error(t, CheckDate("2020-1-31"))
	assert.Error(t, CheckDate("2020-02-30"))
	assert.Error(t, CheckDate("20200131"))
}

func TestCheckDateTime_Backends(t *testing.T) {
	t.Cleanup(settings.Reset)
	valid := "2020-01-01T10:20:30Z"
	invalid := "2020-13-01T10:20:30Z"

	for _, backend := range []string{
		settings.DateTimeBackendAuto,
		settings.DateTimeBackendStrfmt,
		settings.DateTimeBackendRFC3339,
	} {
		require.NoError(t, settings.Set(settings.Settings{
			CompiledValidatorCacheMaxSize: 8,
			DateTimeBackend:               backend,
			LogLevel:                      "warn",
		}))
		assert.NoError(t, CheckDateTime(valid), backend)
		assert.Error(t, CheckDateTime(invalid), backend)
		assert.Error(t, CheckDateTime("yesterday"), backend)
	}

	require.NoError(t, settings.Set(settings.Settings{
		CompiledValidatorCacheMaxSize: 8,
		DateTimeBackend:               settings.DateTimeBackendNone,
		LogLevel:                      "warn",
	}))
	assert.NoError(t, CheckDateTime("yesterday"))
}

func TestDraft202012Formats(t *testing.T) {
	fc := Draft202012FormatChecker
	tests := []struct {
		format string
		good   string
		bad    string
	}{
		{"email", "someone@example.com", "someone"},
		{"hostname", "api.example.com", "-bad-.example.com"},
		{"ipv4", "192.168.0.1", "192.168.0.256"},
		{"ipv6", "::1", "1.2.3.4"},
		{"uri", "https://example.com/a", "/relative"},
		{"duration", "P1DT2H", "PT"},
		{"time", "10:20:30Z", "25:00:00Z"},
		{"json-pointer", "/a/~0b", "a/b"},
		{"relative-json-pointer", "1/a", "-1/a"},
		{"regex", "^a+$", "(unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.NoError(t, fc.Check(tt.good, tt.format))
			assert.Error(t, fc.Check(tt.bad, tt.format))
		})
	}
}

func TestFormatKeyword(t *testing.T) {
	schema := map[string]any{"format": "date"}
	assert.True(t, Draft202012.New(schema).IsValid("tomorrow"))

	err := Draft202012.New(schema, WithFormatChecker(Draft202012FormatChecker)).Validate("tomorrow")
	require.Error(t, err)
	assert.Equal(t, `"tomorrow" is not a 'date'`, err.Error())
	assert.NotNil(t, errors.Unwrap(err))
}

func TestTypeChecker(t *testing.T) {
	tc := Draft202012TypeChecker
	assert.True(t, tc.IsType(3.0, "integer"))
	assert.False(t, tc.IsType(3.5, "integer"))
	assert.True(t, tc.IsType(int64(3), "number"))
	assert.False(t, tc.IsType(true, "number"))
	assert.True(t, tc.IsType(nil, "null"))
	assert.True(t, tc.IsType([]string{"a"}, "array"))
	assert.False(t, tc.IsType([]byte("a"), "array"))
	assert.False(t, tc.IsType("x", "unknown"))

	redefined := tc.Redefine("string", func(instance any) bool { return IsString(instance) || IsBytes(instance) })
	assert.True(t, redefined.IsType([]byte("a"), "string"))
	assert.False(t, tc.IsType([]byte("a"), "string"))
}

func TestSearch(t *testing.T) {
	ok, err := Search(`^\p{L}+$`, "héllo")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Search("b", "abc")
	require.NoError(t, err)
	assert.True(t, ok, "patterns are unanchored")

	assert.False(t, IsValidRegex("(unclosed"))
}
