package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger is a handle on the Sink scoped to a watcher, group, action and
// tick. Scoping methods return copies, so one Logger can be shared freely.
type Logger struct {
	sink    *Sink
	watcher string
	group   string
	action  string
	runID   string
}

// Logger returns the root logger for this sink.
func (s *Sink) Logger() *Logger {
	return &Logger{sink: s}
}

// WithWatcher returns a logger scoped to a watcher name.
func (l *Logger) WithWatcher(name string) *Logger {
	c := *l
	c.watcher = name
	return &c
}

// WithGroup returns a logger scoped to a group name.
func (l *Logger) WithGroup(name string) *Logger {
	c := *l
	c.group = name
	return &c
}

// WithAction returns a logger scoped to an action's plugin name.
func (l *Logger) WithAction(name string) *Logger {
	c := *l
	c.action = name
	return &c
}

// WithRunID returns a logger scoped to a tick run ID.
func (l *Logger) WithRunID(id string) *Logger {
	c := *l
	c.runID = id
	return &c
}

// Debugf logs a formatted debug-level record.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(zerolog.DebugLevel, nil, format, args...)
}

// Infof logs a formatted info-level record.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(zerolog.InfoLevel, nil, format, args...)
}

// Warnf logs a formatted warning-level record.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(zerolog.WarnLevel, nil, format, args...)
}

// Errorf logs a formatted error-level record.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, nil, format, args...)
}

// ErrorErr logs an error-level record carrying err as a structured field.
func (l *Logger) ErrorErr(err error, format string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, err, format, args...)
}

// Criticalf logs a fatal-level record without exiting.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.log(zerolog.FatalLevel, nil, format, args...)
}

func (l *Logger) log(lvl zerolog.Level, err error, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.sink.Write(Record{
		Level:   lvl,
		Watcher: l.watcher,
		Group:   l.group,
		Action:  l.action,
		RunID:   l.runID,
		Message: msg,
		Err:     err,
	})
}
