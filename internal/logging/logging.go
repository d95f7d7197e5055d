// Package logging builds the loggers handed to every component.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects the logger flavour.
type Options struct {
	Verbose bool      // debug level instead of info
	JSON    bool      // one JSON object per line
	Output  io.Writer // defaults to os.Stderr
}

// New returns the root logger for a run.
func New(opts Options) *log.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	lo := log.Options{
		Prefix:          "libcat",
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}
	if opts.JSON {
		lo.Formatter = log.JSONFormatter
		lo.TimeFormat = time.RFC3339
	}
	return log.NewWithOptions(w, lo)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Component derives a logger tagged with a component name.
func Component(l *log.Logger, name string) *log.Logger {
	if l == nil {
		l = Discard()
	}
	return l.WithPrefix(name)
}
