// Package tcp implements spec.md §1's PeerTransport collaborator over
// plain net.TCP connections, grounded on the teacher's own
// test/tcp_transport_test.go (which already exercises a TCPTransport type
// independent of the teacher's relt-based production transport) and on
// the original system's one-shot socket-per-message design
// (original_source/single_process.py).
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/causalmesh/ses/pkg/ses/types"
	"github.com/causalmesh/ses/pkg/ses/wire"
)

// ErrNotAdvertisable mirrors the teacher's ErrorNotAdvertiseAddress: a
// transport bound to an unspecified address (0.0.0.0 or port 0) with no
// explicit advertise address cannot tell remote peers how to dial back.
// Nothing in this package returns it: NewTransport binds such addresses
// without complaint.
var ErrNotAdvertisable = errors.New("ses/tcp: bind address is not advertisable without an explicit advertise address")

// Transport implements types.PeerTransport over one net.TCP connection
// per message (spec.md §6: "connections are one-shot").
type Transport struct {
	self    int
	peers   []types.PeerEndpoint
	timeout time.Duration
	logger  types.Logger

	listener net.Listener
	inbound  chan []byte

	closeOnce chan struct{}
}

// NewTransport binds the local listening socket for peers[self] and
// starts the accept loop. timeout bounds both dial and per-connection
// read/write operations (spec.md §6 "network.timeout").
func NewTransport(self int, peers []types.PeerEndpoint, timeout time.Duration, logger types.Logger) (*Transport, error) {
	if self < 0 || self >= len(peers) {
		return nil, types.ErrUnknownPeer
	}
	addr := peers[self].Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &types.TransportError{Op: "listen", Err: err}
	}

	t := &Transport{
		self:      self,
		peers:     peers,
		timeout:   timeout,
		logger:    logger,
		listener:  ln,
		inbound:   make(chan []byte, 256),
		closeOnce: make(chan struct{}),
	}
	go t.acceptLoop()
	return t, nil
}

// LocalAddress returns the bound listening address.
func (t *Transport) LocalAddress() string {
	return t.listener.Addr().String()
}

func (t *Transport) acceptLoop() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.closeOnce:
				return
			default:
				t.logger.Warnf("ses/tcp: accept error: %v", err)
				return
			}
		}
		go t.handleConn(conn)
	}
}

func (t *Transport) handleConn(conn net.Conn) {
	defer conn.Close()

	if t.timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(t.timeout))
	}
	data, err := wire.ReadFrame(conn)
	if err != nil {
		t.logger.Warnf("ses/tcp: read error from %s: %v", conn.RemoteAddr(), err)
		return
	}

	// An empty payload is a handshake liveness probe (spec.md §9 "Open
	// question"): the peer connected and closed without ever writing a
	// frame. It carries no protocol meaning and is not counted as a
	// received message.
	if len(data) == 0 {
		return
	}

	// ACK is sent once the frame is accepted for processing, not after
	// delivery (spec.md §6).
	if _, err := conn.Write(wire.ACK); err != nil {
		t.logger.Warnf("ses/tcp: failed writing ACK to %s: %v", conn.RemoteAddr(), err)
		return
	}

	select {
	case t.inbound <- data:
	case <-t.closeOnce:
	}
}

// Connect implements types.PeerTransport. A single attempt: dial, then
// close without writing — a pure liveness probe (spec.md §9). Retrying
// at the configured interval is the runtime's responsibility (spec.md
// §4.4 Startup), not the transport's.
func (t *Transport) Connect(ctx context.Context, idx int) error {
	if idx < 0 || idx >= len(t.peers) {
		return types.ErrUnknownPeer
	}
	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.peers[idx].Address())
	if err != nil {
		return &types.TransportError{Op: "connect", Err: err}
	}
	return conn.Close()
}

// SendFrame implements types.PeerTransport: dial, write the frame,
// half-close the write side, then read the 3-byte ACK token.
func (t *Transport) SendFrame(ctx context.Context, idx int, frame []byte) error {
	if idx < 0 || idx >= len(t.peers) {
		return types.ErrUnknownPeer
	}
	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.peers[idx].Address())
	if err != nil {
		return &types.TransportError{Op: "connect", Err: err}
	}
	defer conn.Close()

	if t.timeout > 0 {
		conn.SetDeadline(time.Now().Add(t.timeout))
	}

	if _, err := conn.Write(frame); err != nil {
		return &types.TransportError{Op: "write", Err: err}
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return &types.TransportError{Op: "close-write", Err: err}
		}
	}

	ack := make([]byte, len(wire.ACK))
	if _, err := readFull(conn, ack); err != nil {
		return &types.TransportError{Op: "read-ack", Err: err}
	}
	if string(ack) != string(wire.ACK) {
		return &types.TransportError{Op: "read-ack", Err: fmt.Errorf("unexpected ack %q", ack)}
	}
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Inbound implements types.PeerTransport.
func (t *Transport) Inbound() <-chan []byte {
	return t.inbound
}

// Close implements types.PeerTransport. Idempotent.
func (t *Transport) Close() error {
	select {
	case <-t.closeOnce:
		return nil
	default:
		close(t.closeOnce)
	}
	return t.listener.Close()
}
