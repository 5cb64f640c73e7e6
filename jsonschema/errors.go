package jsonschema

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnresolvable    = errors.New("unresolvable reference")
	ErrUnknownFormat   = errors.New("unknown format")
	ErrSchemaAuthoring = errors.New("invalid schema")
	ErrNoMetaSchema    = errors.New("variant has no metaschema")
)

var (
	weakMatches   = map[string]bool{"anyOf": true, "oneOf": true}
	strongMatches = map[string]bool{}
)

// ValidationError is one failed keyword assertion. Path and SchemaPath are
// relative to Parent when the error sits in another error's Context.
type ValidationError struct {
	Message      string
	Keyword      string
	KeywordValue any
	Instance     any
	Schema       any
	Path         []any
	SchemaPath   []any
	Context      []*ValidationError
	Cause        error
	Parent       *ValidationError

	types *TypeChecker
}

// NewError builds a ValidationError with a formatted message.
func NewError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 && e.Parent == nil {
		return e.Message
	}
	return e.Message + " (at " + e.JSONPath() + ")"
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// AbsolutePath is the instance path from the document root.
func (e *ValidationError) AbsolutePath() []any {
	if e.Parent == nil {
		return append([]any(nil), e.Path...)
	}
	return append(e.Parent.AbsolutePath(), e.Path...)
}

// AbsoluteSchemaPath is the schema path from the root schema.
func (e *ValidationError) AbsoluteSchemaPath() []any {
	if e.Parent == nil {
		return append([]any(nil), e.SchemaPath...)
	}
	return append(e.Parent.AbsoluteSchemaPath(), e.SchemaPath...)
}

// JSONPath renders AbsolutePath as "$.a[0].b".
func (e *ValidationError) JSONPath() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range e.AbsolutePath() {
		switch s := seg.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s))
			b.WriteByte(']')
		default:
			b.WriteByte('.')
			b.WriteString(fmt.Sprint(s))
		}
	}
	return b.String()
}

// WithContext attaches children and points them back at e.
func (e *ValidationError) WithContext(children []*ValidationError) *ValidationError {
	e.Context = children
	for _, c := range children {
		c.Parent = e
	}
	return e
}

func (e *ValidationError) prependPath(seg any) {
	e.Path = append([]any{seg}, e.Path...)
}

func (e *ValidationError) prependSchemaPath(seg any) {
	e.SchemaPath = append([]any{seg}, e.SchemaPath...)
}

func (e *ValidationError) matchesType() bool {
	schema, ok := e.Schema.(map[string]any)
	if !ok || e.types == nil {
		return false
	}
	expected, ok := schema["type"]
	if !ok {
		return false
	}
	for _, name := range stringsOf(expected) {
		if e.types.IsType(e.Instance, name) {
			return true
		}
	}
	return false
}

// relevance orders errors for BestMatch; the tuple compares lexicographically
// with false before true.
type relevance struct {
	negDepth int
	notWeak  bool
	strong   bool
	mismatch bool
}

func relevanceOf(e *ValidationError) relevance {
	return relevance{
		negDepth: -len(e.Path),
		notWeak:  !weakMatches[e.Keyword],
		strong:   strongMatches[e.Keyword],
		mismatch: !e.matchesType(),
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r relevance) compare(o relevance) int {
	switch {
	case r.negDepth != o.negDepth:
		return r.negDepth - o.negDepth
	case r.notWeak != o.notWeak:
		return b2i(r.notWeak) - b2i(o.notWeak)
	case r.strong != o.strong:
		return b2i(r.strong) - b2i(o.strong)
	default:
		return b2i(r.mismatch) - b2i(o.mismatch)
	}
}

// BestMatch picks the most relevant error: the shallowest top-level error,
// then repeatedly the deepest child of its context unless the two best
// children tie.
func BestMatch(errs iter.Seq[*ValidationError]) *ValidationError {
	var best *ValidationError
	var bestRel relevance
	for err := range errs {
		rel := relevanceOf(err)
		if best == nil || rel.compare(bestRel) > 0 {
			best, bestRel = err, rel
		}
	}
	if best == nil {
		return nil
	}
	for len(best.Context) > 0 {
		var first, second *ValidationError
		var firstRel, secondRel relevance
		for _, child := range best.Context {
			rel := relevanceOf(child)
			switch {
			case first == nil || rel.compare(firstRel) < 0:
				second, secondRel = first, firstRel
				first, firstRel = child, rel
			case second == nil || rel.compare(secondRel) < 0:
				second, secondRel = child, rel
			}
		}
		if second != nil && firstRel.compare(secondRel) == 0 {
			return best
		}
		best = first
	}
	return best
}

// FormatError reports a failed format check. It never leaves the engine
// as is: the format keyword turns it into a ValidationError.
type FormatError struct {
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// ReferenceError is the cause attached to a ValidationError when a reference
// does not resolve.
type ReferenceError struct {
	Ref   string
	Cause error
}

func (e *ReferenceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("unresolvable reference %q", e.Ref)
	}
	return fmt.Sprintf("unresolvable reference %q: %v", e.Ref, e.Cause)
}

func (e *ReferenceError) Unwrap() error {
	if e.Cause == nil {
		return ErrUnresolvable
	}
	return e.Cause
}

// SchemaError reports a schema that does not conform to its metaschema.
// It does not unwrap to a ValidationError, so errors.As tells the two apart.
type SchemaError struct {
	Message    string
	Path       []any
	SchemaPath []any
	Detail     *ValidationError
}

func newSchemaError(detail *ValidationError) *SchemaError {
	return &SchemaError{
		Message:    detail.Message,
		Path:       detail.AbsolutePath(),
		SchemaPath: detail.AbsoluteSchemaPath(),
		Detail:     detail,
	}
}

func (e *SchemaError) Error() string {
	if len(e.Path) == 0 {
		return "invalid schema: " + e.Message
	}
	return "invalid schema: " + e.Message + " (at " + e.Detail.JSONPath() + ")"
}
