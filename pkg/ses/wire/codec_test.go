package wire

import (
	"io"
	"strings"
	"testing"

	"github.com/causalmesh/ses/pkg/ses/types"
)

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	msg := types.Message{
		SenderID:   0,
		ReceiverID: 1,
		Content:    []byte("hello"),
		VC:         types.VectorTimestamp{1, 0, 0},
		Dep: types.DependencyMap{
			2: types.VectorTimestamp{1, 0, 0},
		},
		SeqNo: 7,
		UID:   "abc-123",
	}

	frame, err := Marshal(msg, 3)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(frame, 3)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.SenderID != msg.SenderID || got.ReceiverID != msg.ReceiverID {
		t.Fatalf("sender/receiver mismatch: %+v", got)
	}
	if string(got.Content) != "hello" {
		t.Fatalf("content mismatch: %q", got.Content)
	}
	if !got.VC.Equal(msg.VC) {
		t.Fatalf("VC mismatch: got %v want %v", got.VC, msg.VC)
	}
	if len(got.Dep) != 1 || !got.Dep[2].Equal(msg.Dep[2]) {
		t.Fatalf("Dep mismatch: got %v want %v", got.Dep, msg.Dep)
	}
	if got.SeqNo != msg.SeqNo || got.UID != msg.UID {
		t.Fatalf("seqno/uid mismatch: %+v", got)
	}
}

func TestMarshal_AbsentDependencyIsScalarZero(t *testing.T) {
	msg := types.Message{
		SenderID:   0,
		ReceiverID: 1,
		Dep:        types.NewDependencyMap(),
		VC:         types.VectorTimestamp{1, 0, 0},
	}
	frame, err := Marshal(msg, 3)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// msg_queue[2] should be the bare scalar 0, not an array, per spec.md
	// §6's encoding of an absent dependency entry.
	if !strings.Contains(string(frame), `"msg_queue":[0,0,0]`) {
		t.Fatalf("expected absent entries encoded as scalar 0, got %s", frame)
	}
}

func TestUnmarshal_RejectsSenderOutOfRange(t *testing.T) {
	frame := []byte(`{"sender_id":9,"receiver_id":1,"content":"","timestamp":[0,0,0],"msg_queue":[0,0,0],"msg_number":1}`)
	_, err := Unmarshal(frame, 3)
	if _, ok := err.(*types.ProtocolViolation); !ok {
		t.Fatalf("expected *types.ProtocolViolation, got %T (%v)", err, err)
	}
}

func TestUnmarshal_RejectsShortTimestamp(t *testing.T) {
	frame := []byte(`{"sender_id":0,"receiver_id":1,"content":"","timestamp":[0,0],"msg_queue":[0,0,0],"msg_number":1}`)
	_, err := Unmarshal(frame, 3)
	if _, ok := err.(*types.ProtocolViolation); !ok {
		t.Fatalf("expected *types.ProtocolViolation, got %T (%v)", err, err)
	}
}

func TestUnmarshal_RejectsMalformedJSON(t *testing.T) {
	_, err := Unmarshal([]byte("not json"), 3)
	if _, ok := err.(*types.DecodeError); !ok {
		t.Fatalf("expected *types.DecodeError, got %T (%v)", err, err)
	}
}

func TestUnmarshal_RejectsNonzeroScalarDependency(t *testing.T) {
	frame := []byte(`{"sender_id":0,"receiver_id":1,"content":"","timestamp":[0,0,0],"msg_queue":[0,7,0],"msg_number":1}`)
	_, err := Unmarshal(frame, 3)
	if _, ok := err.(*types.ProtocolViolation); !ok {
		t.Fatalf("expected *types.ProtocolViolation for nonzero scalar msg_queue entry, got %T (%v)", err, err)
	}
}

func TestReadFrame_ReadsUntilEOF(t *testing.T) {
	r := &singleReader{data: []byte("payload bytes")}
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(got) != "payload bytes" {
		t.Fatalf("ReadFrame() = %q", got)
	}
}

type singleReader struct {
	data []byte
	read bool
}

func (s *singleReader) Read(p []byte) (int, error) {
	if s.read {
		return 0, io.EOF
	}
	s.read = true
	n := copy(p, s.data)
	return n, nil
}
