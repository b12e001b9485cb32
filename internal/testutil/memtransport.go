// Package testutil holds cluster-construction helpers used by the
// integration tests in pkg/ses/runtime, adapted from the teacher's
// test/testing.go (which built a similar in-process cluster of peers
// sharing a TestInvoker). It is a regular (non-_test.go) package so it
// can be imported by _test.go files in other packages, per Go's package
// visibility rules.
package testutil

import (
	"context"
	"sync"

	"github.com/causalmesh/ses/pkg/ses/types"
)

// Fabric is an in-memory full mesh connecting N MemTransports, standing
// in for real TCP sockets in unit/integration tests so the receive path
// can be exercised deterministically and without port allocation.
type Fabric struct {
	mu     sync.Mutex
	closed []bool
	inbox  []chan []byte
}

// NewFabric builds a fabric for n processes.
func NewFabric(n int) *Fabric {
	f := &Fabric{
		closed: make([]bool, n),
		inbox:  make([]chan []byte, n),
	}
	for i := range f.inbox {
		f.inbox[i] = make(chan []byte, 1024)
	}
	return f
}

// Transport returns the PeerTransport view of the fabric for process
// self.
func (f *Fabric) Transport(self int) *MemTransport {
	return &MemTransport{self: self, fabric: f}
}

// MemTransport implements types.PeerTransport over a shared Fabric.
type MemTransport struct {
	self   int
	fabric *Fabric
}

// Connect always succeeds immediately: the in-memory fabric has no
// notion of a peer being "down", so the handshake of spec.md §4.4
// completes on the first attempt.
func (m *MemTransport) Connect(ctx context.Context, idx int) error {
	return nil
}

// SendFrame delivers frame directly into the target's inbox.
func (m *MemTransport) SendFrame(ctx context.Context, idx int, frame []byte) error {
	m.fabric.mu.Lock()
	closed := m.fabric.closed[idx]
	m.fabric.mu.Unlock()
	if closed {
		return &types.TransportError{Op: "write", Err: errClosed}
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)
	select {
	case m.fabric.inbox[idx] <- cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound returns this process's inbox channel.
func (m *MemTransport) Inbound() <-chan []byte {
	return m.fabric.inbox[m.self]
}

// Close marks this process's slot closed; other processes' sends will
// then fail instead of blocking on a full, abandoned channel.
func (m *MemTransport) Close() error {
	m.fabric.mu.Lock()
	defer m.fabric.mu.Unlock()
	m.fabric.closed[m.self] = true
	return nil
}

var errClosed = transportClosedError{}

type transportClosedError struct{}

func (transportClosedError) Error() string { return "testutil: transport closed" }
