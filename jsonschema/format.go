package jsonschema

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/oarkflow/date"
	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/settings"
)

// FormatFunc checks one value against a format. A nil error means the value
// conforms or the format does not apply to its type.
type FormatFunc func(instance any) error

// FormatChecker is an immutable table of format predicates.
type FormatChecker struct {
	checks        map[string]FormatFunc
	strictUnknown bool
}

type FormatCheckerOption func(*FormatChecker)

// StrictUnknown makes Check fail for formats missing from the table instead
// of ignoring them.
func StrictUnknown() FormatCheckerOption {
	return func(fc *FormatChecker) {
		fc.strictUnknown = true
	}
}

func NewFormatChecker(checks map[string]FormatFunc, opts ...FormatCheckerOption) *FormatChecker {
	fc := &FormatChecker{checks: make(map[string]FormatFunc, len(checks))}
	for name, fn := range checks {
		fc.checks[name] = fn
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// Check returns a *FormatError when instance does not conform to format.
func (fc *FormatChecker) Check(instance any, format string) error {
	fn, ok := fc.checks[format]
	if !ok {
		if fc.strictUnknown {
			return &FormatError{
				Message: fmt.Sprintf("Format checker for %s format not found", Quote(format)),
				Cause:   errors.Wrap(ErrUnknownFormat, format),
			}
		}
		return nil
	}
	if err := fn(instance); err != nil {
		return &FormatError{
			Message: fmt.Sprintf("%s is not a %s", Repr(instance), Quote(format)),
			Cause:   err,
		}
	}
	return nil
}

func (fc *FormatChecker) Conforms(instance any, format string) bool {
	return fc.Check(instance, format) == nil
}

func (fc *FormatChecker) Has(format string) bool {
	_, ok := fc.checks[format]
	return ok
}

func (fc *FormatChecker) StrictUnknown() bool {
	return fc.strictUnknown
}

// With returns a copy that checks format with fn.
func (fc *FormatChecker) With(format string, fn FormatFunc) *FormatChecker {
	out := fc.clone()
	out.checks[format] = fn
	return out
}

// Without returns a copy that no longer knows the given formats.
func (fc *FormatChecker) Without(formats ...string) *FormatChecker {
	out := fc.clone()
	for _, f := range formats {
		delete(out.checks, f)
	}
	return out
}

// Merge returns a copy extended with every check of other; other wins on
// conflicts.
func (fc *FormatChecker) Merge(other *FormatChecker) *FormatChecker {
	out := fc.clone()
	for name, fn := range other.checks {
		out.checks[name] = fn
	}
	return out
}

func (fc *FormatChecker) Formats() []string {
	names := make([]string, 0, len(fc.checks))
	for name := range fc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fc *FormatChecker) clone() *FormatChecker {
	opts := []FormatCheckerOption{}
	if fc.strictUnknown {
		opts = append(opts, StrictUnknown())
	}
	return NewFormatChecker(fc.checks, opts...)
}

// StringFormat adapts a string predicate; other types pass.
func StringFormat(fn func(string) error) FormatFunc {
	return func(instance any) error {
		s, ok := instance.(string)
		if !ok {
			return nil
		}
		return fn(s)
	}
}

// DateTimeBackend is one RFC 3339 date-time validator.
type DateTimeBackend struct {
	Name  string
	Check func(string) error
}

// DateTimeBackends lists the date-time validators in priority order.
var DateTimeBackends = []DateTimeBackend{
	{Name: settings.DateTimeBackendStrfmt, Check: strfmtDateTime},
	{Name: settings.DateTimeBackendRFC3339, Check: rfc3339DateTime},
	{Name: settings.DateTimeBackendISO8601, Check: iso8601DateTime},
}

func strfmtDateTime(s string) error {
	if !strfmt.IsDateTime(s) {
		return errors.New("not an RFC 3339 date-time")
	}
	return nil
}

func rfc3339DateTime(s string) error {
	_, err := time.Parse(time.RFC3339Nano, strings.ToUpper(s))
	return err
}

func iso8601DateTime(s string) error {
	_, err := date.Parse(s)
	return err
}

// CheckDateTime validates s with the backend selected in settings. With the
// "none" backend every string passes.
func CheckDateTime(s string) error {
	name := settings.MustGet().DateTimeBackend
	if name == settings.DateTimeBackendNone {
		return nil
	}
	for _, b := range DateTimeBackends {
		if name == settings.DateTimeBackendAuto || name == b.Name {
			return b.Check(s)
		}
	}
	return nil
}

// CheckDate accepts only YYYY-MM-DD.
func CheckDate(s string) error {
	if len(s) != len("2006-01-02") {
		return errors.Errorf("%q is not YYYY-MM-DD", s)
	}
	_, err := time.Parse("2006-01-02", s)
	return err
}

// CheckUUID requires the canonical hyphenated form, in any case.
func CheckUUID(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	if !strings.EqualFold(id.String(), s) {
		return errors.Errorf("%q is not in canonical form", s)
	}
	return nil
}

func checkTime(s string) error {
	_, err := time.Parse("15:04:05.999999999Z07:00", strings.ToUpper(s))
	return err
}

var durationPattern = `^P(?!$)(\d+Y)?(\d+M)?(\d+W)?(\d+D)?(T(?=\d)(\d+H)?(\d+M)?(\d+S)?)?$`

func checkDuration(s string) error {
	ok, err := Search(durationPattern, s)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not an ISO 8601 duration")
	}
	return nil
}

func strfmtFormat(name string) func(string) error {
	return func(s string) error {
		if !strfmt.Default.Validates(name, s) {
			return errors.Errorf("not a valid %s", name)
		}
		return nil
	}
}

func checkHostname(s string) error {
	if len(s) > 253 || !strfmt.IsHostname(s) {
		return errors.New("invalid hostname")
	}
	return nil
}

func checkIPv4(s string) error {
	ip := net.ParseIP(s)
	if ip == nil || !strings.Contains(s, ".") || strings.Contains(s, ":") {
		return errors.New("invalid IPv4 address")
	}
	return nil
}

func checkIPv6(s string) error {
	if net.ParseIP(s) == nil || !strings.Contains(s, ":") {
		return errors.New("invalid IPv6 address")
	}
	return nil
}

func checkURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return errors.New("uri missing scheme")
	}
	return nil
}

func checkURIReference(s string) error {
	if _, err := url.Parse(s); err != nil {
		return err
	}
	if strings.Contains(s, `\`) {
		return errors.New("invalid uri reference")
	}
	return nil
}

func checkJSONPointer(s string) error {
	if s == "" {
		return nil
	}
	if s[0] != '/' {
		return errors.New("non-empty pointers must begin with '/'")
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '~' && (i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1')) {
			return errors.New("unescaped '~'")
		}
	}
	return nil
}

func checkRelativeJSONPointer(s string) error {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return errors.New("must begin with a non-negative integer")
	}
	if _, err := strconv.Atoi(s[:i]); err != nil {
		return err
	}
	if i > 1 && s[0] == '0' {
		return errors.New("leading zero")
	}
	rest := s[i:]
	if rest == "#" {
		return nil
	}
	return checkJSONPointer(rest)
}

func checkRegex(s string) error {
	_, err := CompilePattern(s)
	return err
}

var (
	// Draft4FormatChecker carries the formats draft-04 defines.
	Draft4FormatChecker = NewFormatChecker(map[string]FormatFunc{
		"date-time": StringFormat(CheckDateTime),
		"email":     StringFormat(strfmtFormat("email")),
		"hostname":  StringFormat(checkHostname),
		"ipv4":      StringFormat(checkIPv4),
		"ipv6":      StringFormat(checkIPv6),
		"uri":       StringFormat(checkURI),
		"regex":     StringFormat(checkRegex),
	})

	// Draft202012FormatChecker carries the 2020-12 formats the engine knows.
	Draft202012FormatChecker = Draft4FormatChecker.Merge(NewFormatChecker(map[string]FormatFunc{
		"date":                  StringFormat(CheckDate),
		"time":                  StringFormat(checkTime),
		"duration":              StringFormat(checkDuration),
		"idn-email":             StringFormat(strfmtFormat("email")),
		"uri-reference":         StringFormat(checkURIReference),
		"iri":                   StringFormat(checkURI),
		"iri-reference":         StringFormat(checkURIReference),
		"uuid":                  StringFormat(CheckUUID),
		"json-pointer":          StringFormat(checkJSONPointer),
		"relative-json-pointer": StringFormat(checkRelativeJSONPointer),
	}))
)
