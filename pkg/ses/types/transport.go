package types

import "context"

// PeerTransport is the collaborator named in spec.md §1: something that
// "can deliver encoded messages to a remote peer and surface incoming
// encoded messages". It is deliberately byte-oriented; the framing and
// encoding live in pkg/ses/wire, and the networked implementation in
// pkg/ses/tcp.
type PeerTransport interface {
	// Connect establishes (or confirms) connectivity to peer idx. It is
	// called repeatedly during the startup handshake (spec.md §4.4) and
	// must be safe to retry.
	Connect(ctx context.Context, idx int) error

	// SendFrame transmits an already-encoded frame to peer idx, returning
	// once the frame was handed off (and, per the wire format in spec.md
	// §6, once the 3-byte ACK token was read back).
	SendFrame(ctx context.Context, idx int, frame []byte) error

	// Inbound returns a channel of raw, as-yet-undecoded frames arriving
	// from any peer. Decoding happens in the runtime's receiver worker,
	// not in the transport, so the transport never produces a DecodeError.
	Inbound() <-chan []byte

	// Close releases all transport resources. Idempotent.
	Close() error
}
