// Package log provides the logging capability used by the polling driver,
// the worker and the CLI.
//
// The engine accepts any implementation of [Logger]. Use [Noop] to disable
// logging (this is the default when no logger is configured). An
// implementation backed by logrus lives in the logrus subpackage.
package log

// Kv is a helper type for structured logging key-value pairs.
type Kv = map[string]any

// Logger is the capability contract handed to driver hooks and steps.
// Besides leveled output it exposes a spinner-style progress indicator so
// long polls can show liveness; implementations that have no terminal
// simply log the messages.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)

	// WithValues returns a logger that attaches the given key-value pairs
	// to every entry.
	WithValues(kv Kv) Logger

	// StartProgress begins a spinner-style indicator with the given text.
	// Calling it again replaces the current indicator text.
	StartProgress(format string, args ...any)

	// StopProgress ends the current indicator, if any. It is idempotent.
	StopProgress()
}

type noop struct{}

func (noop) Infof(format string, args ...any)         {}
func (noop) Warningf(format string, args ...any)      {}
func (noop) Errorf(format string, args ...any)        {}
func (noop) Debugf(format string, args ...any)        {}
func (noop) WithValues(kv Kv) Logger                  { return noop{} }
func (noop) StartProgress(format string, args ...any) {}
func (noop) StopProgress()                            {}

// Noop is a logger that discards all output.
var Noop Logger = noop{}
