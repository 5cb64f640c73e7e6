package jsonschema

import (
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/grafana/regexp"
	"github.com/pkg/errors"
)

// MatchTimeout bounds a single ECMA pattern match.
var MatchTimeout = 5 * time.Second

// Regexp is a compiled schema pattern with search semantics: it matches when
// any substring matches.
type Regexp interface {
	MatchString(s string) bool
	String() string
}

type ecmaPattern struct {
	re *regexp2.Regexp
}

func (p ecmaPattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p ecmaPattern) String() string {
	return p.re.String()
}

var compiledPatterns sync.Map

// CompilePattern compiles an ECMA-262 pattern, falling back to RE2 syntax for
// patterns the ECMA engine rejects. Results are shared process-wide.
func CompilePattern(expr string) (Regexp, error) {
	if p, ok := compiledPatterns.Load(expr); ok {
		return p.(Regexp), nil
	}
	var p Regexp
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err == nil {
		re.MatchTimeout = MatchTimeout
		p = ecmaPattern{re: re}
	} else {
		re2, err2 := regexp.Compile(expr)
		if err2 != nil {
			return nil, errors.Wrapf(err, "compiling pattern %q", expr)
		}
		p = re2
	}
	actual, _ := compiledPatterns.LoadOrStore(expr, p)
	return actual.(Regexp), nil
}

// IsValidRegex reports whether expr compiles.
func IsValidRegex(expr string) bool {
	_, err := CompilePattern(expr)
	return err == nil
}

// Search reports whether expr matches anywhere in s.
func Search(expr, s string) (bool, error) {
	p, err := CompilePattern(expr)
	if err != nil {
		return false, err
	}
	return p.MatchString(s), nil
}
