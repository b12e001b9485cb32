package types

import "errors"

// Sentinel errors, in the teacher's own style (package-scope errors.New
// values rather than ad-hoc fmt.Errorf strings at call sites).
var (
	// ErrSendToSelf is returned when Engine.PrepareSend is asked to target
	// the local process; spec.md §4.2 excludes this case by precondition.
	ErrSendToSelf = errors.New("ses: cannot send a message to self")

	// ErrShuttingDown is returned by operations invoked after Shutdown has
	// been requested; spec.md §7 "Shutdown-in-progress" is not an error
	// condition raised to protocol callers, but internal plumbing still
	// needs a sentinel to short-circuit in-flight work cleanly.
	ErrShuttingDown = errors.New("ses: process is shutting down")

	// ErrUnknownPeer is returned when a configuration or message refers to
	// a peer index outside [0, N).
	ErrUnknownPeer = errors.New("ses: peer index out of range")
)

// TransportError wraps a connect/read/write/timeout failure observed by
// the transport (spec.md §7). It is never fatal: the sender worker that
// observes it logs and drops the message, and the receiver worker closes
// the offending connection and continues.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "ses: transport error during " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a malformed-frame failure (spec.md §7). Frames that
// fail to decode are logged and dropped; they are never buffered, since
// their VC/Dep fields are untrusted.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "ses: decode error: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolViolation covers structurally valid but semantically impossible
// frames: a VC shorter than N, or a sender/receiver index out of range
// (spec.md §7). Logged and dropped, like DecodeError.
type ProtocolViolation struct {
	Reason string
}

func (e *ProtocolViolation) Error() string {
	return "ses: protocol violation: " + e.Reason
}

// ConfigError marks a fatal startup failure (spec.md §7): a process that
// cannot load a valid Configuration must exit nonzero without attempting
// to run.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "ses: configuration error: " + e.Reason
}

// SendError is the error the runtime's send path returns to its sender
// worker on transport failure (spec.md §4.2 step 3): "no protocol-level retry — the
// transport is contracted reliable".
type SendError struct {
	Target int
	Err    error
}

func (e *SendError) Error() string {
	return "ses: send to peer failed: " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }
