// Package settings holds the externally overridable knobs of the validator.
//
// Values come from defaults, then YAML or flags when the caller wires them,
// then environment variables prefixed with OPENAPI_SCHEMA_VALIDATOR_. Get reads
// them once per process; Reset forces the next Get to read them again.
package settings

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/oasschema/logger"
)

const (
	EnvPrefix = "OPENAPI_SCHEMA_VALIDATOR_"

	DefaultCompiledValidatorCacheMaxSize = 128
	DefaultDateTimeBackend               = DateTimeBackendAuto
	DefaultLogLevel                      = "warn"
)

// Date-time backends, in the order auto tries them.
const (
	DateTimeBackendAuto    = "auto"
	DateTimeBackendStrfmt  = "strfmt"
	DateTimeBackendRFC3339 = "rfc3339"
	DateTimeBackendISO8601 = "iso8601"
	DateTimeBackendNone    = "none"
)

var (
	ErrInvalidCacheSize       = errors.New("compiled validator cache max size must be >= 0")
	ErrInvalidDateTimeBackend = errors.New("unknown date-time backend")
)

var dateTimeBackends = []string{
	DateTimeBackendAuto,
	DateTimeBackendStrfmt,
	DateTimeBackendRFC3339,
	DateTimeBackendISO8601,
	DateTimeBackendNone,
}

type Settings struct {
	CompiledValidatorCacheMaxSize int    `yaml:"compiled_validator_cache_max_size"`
	DateTimeBackend               string `yaml:"datetime_backend"`
	LogLevel                      string `yaml:"log_level"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		CompiledValidatorCacheMaxSize: DefaultCompiledValidatorCacheMaxSize,
		DateTimeBackend:               DefaultDateTimeBackend,
		LogLevel:                      DefaultLogLevel,
	}
}

func (s *Settings) RegisterFlags(f *flag.FlagSet) {
	s.RegisterFlagsWithPrefix("oas-schema-validator.", f)
}

func (s *Settings) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.IntVar(&s.CompiledValidatorCacheMaxSize, prefix+"compiled-validator-cache-max-size", DefaultCompiledValidatorCacheMaxSize, "Maximum number of compiled validators kept in the LRU cache. 0 disables caching.")
	f.StringVar(&s.DateTimeBackend, prefix+"datetime-backend", DefaultDateTimeBackend, "Validator used for the date-time format: "+strings.Join(dateTimeBackends, ", ")+".")
	f.StringVar(&s.LogLevel, prefix+"log-level", DefaultLogLevel, "Log level of the validator logger.")
}

func (s *Settings) Validate() error {
	if s.CompiledValidatorCacheMaxSize < 0 {
		return errors.Wrapf(ErrInvalidCacheSize, "got %d", s.CompiledValidatorCacheMaxSize)
	}
	for _, b := range dateTimeBackends {
		if s.DateTimeBackend == b {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidDateTimeBackend, "%q", s.DateTimeBackend)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, errors.Wrap(err, "parsing settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv overlays environment variables on base.
func FromEnv(base Settings) (Settings, error) {
	s := base
	if v, ok := lookup("COMPILED_VALIDATOR_CACHE_MAX_SIZE", "VALIDATE_CACHE_MAX_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Settings{}, errors.Wrapf(err, "parsing %sCOMPILED_VALIDATOR_CACHE_MAX_SIZE", EnvPrefix)
		}
		s.CompiledValidatorCacheMaxSize = n
	}
	if v, ok := lookup("DATETIME_BACKEND"); ok {
		s.DateTimeBackend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		s.LogLevel = strings.TrimSpace(v)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			return v, true
		}
	}
	return "", false
}

var (
	mtx     sync.Mutex
	current *Settings
	base    = Defaults()
)

// Get returns the process settings, loading them on first use. An invalid
// environment is reported through the returned error and the base settings
// are used instead.
func Get() (Settings, error) {
	mtx.Lock()
	defer mtx.Unlock()
	if current != nil {
		return *current, nil
	}
	s, err := FromEnv(base)
	if err != nil {
		s = base
	}
	current = &s
	return s, err
}

// MustGet is Get with the environment error logged instead of returned.
func MustGet() Settings {
	s, err := Get()
	if err != nil {
		logger.Instance().Warn("ignoring invalid settings from the environment", "err", err)
	}
	return s
}

// Set installs s as the base the environment is layered on and drops the
// cached value.
func Set(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	mtx.Lock()
	defer mtx.Unlock()
	base = s
	current = nil
	return nil
}

// Reset drops the cached settings and restores the defaults as base. Meant for
// tests.
func Reset() {
	mtx.Lock()
	defer mtx.Unlock()
	base = Defaults()
	current = nil
}
