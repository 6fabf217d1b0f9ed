// Package logging builds the structured logger shared by the preprocessor.
package logging

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Options configures the logger
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns a logger writing to opts.Output (stdout when nil).
func New(opts Options) *charmlog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           ParseLevel(opts.Level),
	})
	if opts.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return l
}

// InitLogging installs a logger built from opts as the package default.
func InitLogging(opts Options) *charmlog.Logger {
	l := New(opts)
	charmlog.SetDefault(l)
	return l
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *charmlog.Logger {
	return charmlog.NewWithOptions(io.Discard, charmlog.Options{})
}

// ParseLevel maps a level name to a charm level, defaulting to info.
func ParseLevel(s string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
