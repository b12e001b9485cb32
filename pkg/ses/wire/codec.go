// Package wire implements the JSON frame codec of spec.md §6; a frame is
// delimited by the end of its one-shot connection. Wire shape matches the original system's
// Message.to_dict()/from_dict() exactly: sender_id, receiver_id, content,
// timestamp (the VC after increment), msg_queue (the dependency map,
// encoded as an N-length array where an absent entry is the JSON scalar
// 0 rather than an array), and msg_number.
package wire

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/causalmesh/ses/pkg/ses/types"
)

// wireMessage is the JSON-on-the-wire shape. MsgQueue entries are
// json.RawMessage so each slot can independently be either an array of
// integers or the scalar 0 (spec.md §6: "empty entries are encoded as the
// scalar 0 rather than a vector").
type wireMessage struct {
	SenderID   int               `json:"sender_id"`
	ReceiverID int               `json:"receiver_id"`
	Content    string            `json:"content"`
	Timestamp  []uint64          `json:"timestamp"`
	MsgQueue   []json.RawMessage `json:"msg_queue"`
	MsgNumber  uint64            `json:"msg_number"`
	UID        string            `json:"uid,omitempty"`
}

// Marshal encodes msg into the wire shape for n total processes.
func Marshal(msg types.Message, n int) ([]byte, error) {
	queue := make([]json.RawMessage, n)
	for k := 0; k < n; k++ {
		if k == msg.SenderID {
			queue[k] = json.RawMessage("0")
			continue
		}
		vt, ok := msg.Dep[k]
		if !ok {
			queue[k] = json.RawMessage("0")
			continue
		}
		raw, err := json.Marshal(vt)
		if err != nil {
			return nil, fmt.Errorf("wire: marshal msg_queue[%d]: %w", k, err)
		}
		queue[k] = raw
	}

	wm := wireMessage{
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    string(msg.Content),
		Timestamp:  []uint64(msg.VC),
		MsgQueue:   queue,
		MsgNumber:  msg.SeqNo,
		UID:        msg.UID,
	}
	return json.Marshal(wm)
}

// Unmarshal decodes a wire frame into a types.Message, validating it
// against n (spec.md §7 ProtocolViolation: "msg.vc shorter than N, sender
// index out of range").
func Unmarshal(data []byte, n int) (types.Message, error) {
	var wm wireMessage
	if err := json.Unmarshal(data, &wm); err != nil {
		return types.Message{}, &types.DecodeError{Err: err}
	}

	if wm.SenderID < 0 || wm.SenderID >= n {
		return types.Message{}, &types.ProtocolViolation{Reason: fmt.Sprintf("sender_id %d out of range [0,%d)", wm.SenderID, n)}
	}
	if wm.ReceiverID < 0 || wm.ReceiverID >= n {
		return types.Message{}, &types.ProtocolViolation{Reason: fmt.Sprintf("receiver_id %d out of range [0,%d)", wm.ReceiverID, n)}
	}
	if len(wm.Timestamp) < n {
		return types.Message{}, &types.ProtocolViolation{Reason: fmt.Sprintf("timestamp has %d entries, want %d", len(wm.Timestamp), n)}
	}
	if len(wm.MsgQueue) < n {
		return types.Message{}, &types.ProtocolViolation{Reason: fmt.Sprintf("msg_queue has %d entries, want %d", len(wm.MsgQueue), n)}
	}

	dep := types.NewDependencyMap()
	for k := 0; k < n; k++ {
		if k == wm.SenderID {
			continue
		}
		raw := wm.MsgQueue[k]
		var scalar int
		if err := json.Unmarshal(raw, &scalar); err == nil {
			if scalar == 0 {
				continue
			}
			return types.Message{}, &types.ProtocolViolation{Reason: fmt.Sprintf("msg_queue[%d] is a nonzero scalar", k)}
		}
		var vt types.VectorTimestamp
		if err := json.Unmarshal(raw, &vt); err != nil {
			return types.Message{}, &types.DecodeError{Err: err}
		}
		dep[k] = vt
	}

	return types.Message{
		SenderID:   wm.SenderID,
		ReceiverID: wm.ReceiverID,
		Content:    []byte(wm.Content),
		VC:         types.VectorTimestamp(wm.Timestamp),
		Dep:        dep,
		SeqNo:      wm.MsgNumber,
		UID:        wm.UID,
	}, nil
}

// ACK is the 3-byte token the receiver replies with after a frame is
// accepted for processing (spec.md §6) — not after delivery.
var ACK = []byte("ACK")

// maxFrameBytes bounds a single connection's payload, mirroring the
// original system's 1MB read cap in handle_connection (original_source/
// single_process.py), so a misbehaving peer cannot exhaust memory on an
// EOF-delimited read.
const maxFrameBytes = 1 << 20

// ReadFrame reads one message's worth of bytes from r until end-of-stream.
// Connections are one-shot (spec.md §6: "the sender half-closes after
// writing, the receiver reads to end-of-stream"), so the frame boundary
// is the connection's own lifetime, not a length prefix.
func ReadFrame(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, maxFrameBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(data) > maxFrameBytes {
		return nil, fmt.Errorf("wire: frame exceeds %d bytes", maxFrameBytes)
	}
	return data, nil
}
