// Package logger holds the process-wide logger used by the validator packages.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
	"go.uber.org/atomic"
)

var instance atomic.Pointer[log.Logger]

func init() {
	instance.Store(New(log.WarnLevel))
}

// New returns a stderr logger with the module prefix.
func New(level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "oasschema",
		Level:           level,
		ReportTimestamp: true,
	})
}

// SetLogger replaces the process logger. Passing nil restores the default.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = New(log.WarnLevel)
	}
	instance.Store(l)
}

// SetLevel parses level and applies it to the current logger.
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Instance().SetLevel(lvl)
	return nil
}

func Instance() *log.Logger {
	return instance.Load()
}
