// Package report carries status and error messages from the numerical
// cores out to whatever is hosting them. Errors have a negative integer
// code plus a human-readable message, the convention the surrounding
// pipeline tooling expects.
package report

import(
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Sink interface {
	// Errorf reports a failure with a distinct negative code.
	Errorf(code int, format string, args ...interface{})
	// Statusf reports forward progress.
	Statusf(format string, args ...interface{})
}

// LogSink writes through a logrus logger.
type LogSink struct {
	Log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{Log: log}
}

// Default builds a sink on the standard logrus logger.
func Default() *LogSink {
	return &LogSink{Log: logrus.StandardLogger()}
}

func (s *LogSink)Errorf(code int, format string, args ...interface{}) {
	s.Log.WithField("code", code).Errorf(format, args...)
}

func (s *LogSink)Statusf(format string, args ...interface{}) {
	s.Log.Infof(format, args...)
}

type Entry struct {
	Code    int
	Message string
}

// Recorder captures everything reported through it; tests use it to pin
// codes and messages.
type Recorder struct {
	mu       sync.Mutex
	Errors   []Entry
	Statuses []string
}

func (r *Recorder)Errorf(code int, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, Entry{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder)Statusf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses = append(r.Statuses, fmt.Sprintf(format, args...))
}

// LastError returns the most recent error entry, if any.
func (r *Recorder)LastError() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Errors) == 0 {
		return Entry{}, false
	}
	return r.Errors[len(r.Errors)-1], true
}
