package types

// Logger is the collaborator sink named in spec.md §1 ("a Logger sink").
// The method set mirrors the teacher's own definition.DefaultLogger shape:
// a handful of leveled methods plus a debug toggle, so any logging backend
// (the teacher's stdlib-based default, or the prometheus/common/logrus
// backed one in internal/obslog) can satisfy it.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	ToggleDebug(value bool) bool
}

// EventKind names the observability entries required by spec.md §6.
type EventKind string

const (
	EventSent       EventKind = "SENT"
	EventReceived   EventKind = "RECEIVED"
	EventDelivered  EventKind = "DELIVERED"
	EventBuffered   EventKind = "BUFFERED"
	EventUnbuffered EventKind = "UNBUFFERED"
)

// EventLogger records the per-process observability stream: each entry
// carries the message identity and the relevant VC/D snapshots (spec.md
// §6). Implementations may also be a Logger; the two interfaces are kept
// separate so the core packages only depend on whichever shape they need.
type EventLogger interface {
	LogEvent(kind EventKind, msg Message, vc VectorTimestamp, dep DependencyMap, reason string)
}
