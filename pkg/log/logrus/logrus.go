// Package logrus provides a logrus-backed implementation of the log.Logger
// capability.
package logrus

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/abeauvois/ingestflow/pkg/log"
)

type logger struct {
	entry *logrus.Entry

	mu      sync.Mutex
	spinMsg string
}

// New returns a log.Logger backed by the given logrus logger.
// If l is nil, logrus.StandardLogger() is used.
func New(l *logrus.Logger) log.Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logger{entry: logrus.NewEntry(l)}
}

// NewFromEntry returns a log.Logger backed by a pre-configured entry,
// keeping whatever fields the entry already carries.
func NewFromEntry(entry *logrus.Entry) log.Logger {
	return &logger{entry: entry}
}

func (l *logger) Infof(format string, args ...any)    { l.entry.Infof(format, args...) }
func (l *logger) Warningf(format string, args ...any) { l.entry.Warningf(format, args...) }
func (l *logger) Errorf(format string, args ...any)   { l.entry.Errorf(format, args...) }
func (l *logger) Debugf(format string, args ...any)   { l.entry.Debugf(format, args...) }

func (l *logger) WithValues(kv log.Kv) log.Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(kv))}
}

// StartProgress has no terminal spinner to drive; it logs the message once
// and remembers it so StopProgress can close the span.
func (l *logger) StartProgress(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	l.spinMsg = msg
	l.mu.Unlock()

	l.entry.Info(msg)
}

func (l *logger) StopProgress() {
	l.mu.Lock()
	msg := l.spinMsg
	l.spinMsg = ""
	l.mu.Unlock()

	if msg != "" {
		l.entry.Debugf("%s: done", msg)
	}
}
