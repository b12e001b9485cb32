package tcp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/causalmesh/ses/pkg/ses/definition"
	"github.com/causalmesh/ses/pkg/ses/types"
	"github.com/causalmesh/ses/pkg/ses/wire"
)

func twoPeerEndpoints(t *testing.T) []types.PeerEndpoint {
	t.Helper()
	return []types.PeerEndpoint{
		{Host: "127.0.0.1", Port: 0},
		{Host: "127.0.0.1", Port: 0},
	}
}

func TestNewTransport_BadSelfIndex(t *testing.T) {
	_, err := NewTransport(5, twoPeerEndpoints(t), time.Second, definition.NewDefaultLogger())
	if err != types.ErrUnknownPeer {
		t.Fatalf("err: %v", err)
	}
}

func TestTransport_SendAndReceiveFrame(t *testing.T) {
	logger := definition.NewDefaultLogger()

	serverListening, err := NewTransport(0, []types.PeerEndpoint{{Host: "127.0.0.1", Port: 0}}, time.Second, logger)
	if err != nil {
		t.Fatalf("NewTransport server: %v", err)
	}
	defer serverListening.Close()

	peers := []types.PeerEndpoint{serverAddr(t, serverListening), {Host: "127.0.0.1", Port: 0}}
	client, err := NewTransport(1, peers, time.Second, logger)
	if err != nil {
		t.Fatalf("NewTransport client: %v", err)
	}
	defer client.Close()

	msg := types.Message{SenderID: 1, ReceiverID: 0, Content: []byte("hi"), VC: types.VectorTimestamp{0, 1}, Dep: types.NewDependencyMap(), SeqNo: 1}
	frame, err := wire.Marshal(msg, 2)
	if err != nil {
		t.Fatalf("wire.Marshal: %v", err)
	}

	if err := client.SendFrame(context.Background(), 0, frame); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	select {
	case got := <-serverListening.Inbound():
		decoded, err := wire.Unmarshal(got, 2)
		if err != nil {
			t.Fatalf("wire.Unmarshal: %v", err)
		}
		if decoded.SenderID != 1 || string(decoded.Content) != "hi" {
			t.Fatalf("unexpected decoded message: %+v", decoded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound frame")
	}
}

func TestTransport_Connect_HandshakeProbeNotCountedAsInbound(t *testing.T) {
	logger := definition.NewDefaultLogger()
	server, err := NewTransport(0, []types.PeerEndpoint{{Host: "127.0.0.1", Port: 0}}, time.Second, logger)
	if err != nil {
		t.Fatalf("NewTransport server: %v", err)
	}
	defer server.Close()

	peers := []types.PeerEndpoint{serverAddr(t, server), {Host: "127.0.0.1", Port: 0}}
	client, err := NewTransport(1, peers, time.Second, logger)
	if err != nil {
		t.Fatalf("NewTransport client: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background(), 0); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case frame := <-server.Inbound():
		t.Fatalf("handshake probe must not be pushed to Inbound(), got %q", frame)
	case <-time.After(200 * time.Millisecond):
		// expected: no frame delivered
	}
}

func TestTransport_Close_Idempotent(t *testing.T) {
	logger := definition.NewDefaultLogger()
	tr, err := NewTransport(0, []types.PeerEndpoint{{Host: "127.0.0.1", Port: 0}}, time.Second, logger)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got: %v", err)
	}
}

func serverAddr(t *testing.T, tr *Transport) types.PeerEndpoint {
	t.Helper()
	host, portStr, err := net.SplitHostPort(tr.LocalAddress())
	if err != nil {
		t.Fatalf("split %q: %v", tr.LocalAddress(), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %q: %v", portStr, err)
	}
	return types.PeerEndpoint{Host: host, Port: port}
}
