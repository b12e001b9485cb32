// Package definition holds the default, dependency-free implementations
// of the small collaborator interfaces the core packages consume,
// adapted from the teacher's pkg/mcast/definition/default_logger.go.
package definition

import (
	"fmt"
	"log"
	"os"

	"github.com/causalmesh/ses/pkg/ses/types"
)

const (
	calldepth = 2
	info      = "INFO"
	warn      = "WARN"
	errorl    = "ERROR"
	debugl    = "DEBUG"
	fatal     = "FATAL"
)

// NewDefaultLogger returns the stdlib-backed logger used when the caller
// does not need structured fields or multi-sink output — mainly tests.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		Logger: log.New(os.Stderr, "ses ", log.LstdFlags),
		debug:  false,
	}
}

func level(prefix, message string) string {
	return fmt.Sprintf("[%s]: %s", prefix, message)
}

// DefaultLogger is the logger used if the caller does not provide its
// own implementation. It satisfies types.Logger and types.EventLogger.
type DefaultLogger struct {
	*log.Logger
	debug bool
}

func (l *DefaultLogger) Info(v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Warn(v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Error(v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Debug(v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debugl, fmt.Sprint(v...)))
	}
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debugl, fmt.Sprintf(format, v...)))
	}
}

func (l *DefaultLogger) ToggleDebug(value bool) bool {
	l.debug = value
	return l.debug
}

func (l *DefaultLogger) Fatal(v ...interface{}) {
	l.Output(calldepth, level(fatal, fmt.Sprint(v...)))
	os.Exit(1)
}

func (l *DefaultLogger) Fatalf(format string, v ...interface{}) {
	l.Output(calldepth, level(fatal, fmt.Sprintf(format, v...)))
	os.Exit(1)
}

// LogEvent implements types.EventLogger with a single formatted line per
// entry, sufficient for tests that only assert on the delivery log
// itself rather than on log text. BUFFERED entries are written at warn
// level; all other entries are written only when debug is on.
func (l *DefaultLogger) LogEvent(kind types.EventKind, msg types.Message, vc types.VectorTimestamp, dep types.DependencyMap, reason string) {
	line := fmt.Sprintf("%s %s vc=%v dep=%v", kind, msg, vc, dep)
	if reason != "" {
		line += " reason=" + reason
	}
	if kind == types.EventBuffered {
		l.Warnf("%s", line)
		return
	}
	l.Debugf("%s", line)
}
