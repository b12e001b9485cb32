package types

import "fmt"

// Message is the wire entity of spec.md §3. It is constructed by SendPath,
// transmitted once over a single (sender, receiver) link, and either
// delivered immediately at the receiver or retained in the receive buffer
// until the delivery predicate becomes true.
type Message struct {
	// SenderID and ReceiverID are peer identities in [0, N).
	SenderID   int
	ReceiverID int

	// Content is opaque application payload.
	Content []byte

	// VC is the sender's vector clock immediately after incrementing for
	// this send (spec.md §4.1 on_send step 2 "VC_after").
	VC VectorTimestamp

	// Dep is a snapshot of the sender's dependency map taken before the
	// post-send update (spec.md §4.1 on_send step 2 "D_before").
	Dep DependencyMap

	// SeqNo is an opaque per-(sender, receiver) counter used only for
	// logging (spec.md §3); it carries no protocol meaning.
	SeqNo uint64

	// UID correlates SENT/RECEIVED/DELIVERED/BUFFERED/UNBUFFERED log
	// entries for this message across independent per-process log
	// streams (SPEC_FULL.md §3 domain stack: google/uuid).
	UID string
}

func (m Message) String() string {
	return fmt.Sprintf("msg#%d P%d->P%d", m.SeqNo, m.SenderID, m.ReceiverID)
}

// DeliveryLog is an append-only sequence of delivered messages, used for
// test observation (spec.md §3).
type DeliveryLog struct {
	entries []Message
}

// Append records a delivered message.
func (l *DeliveryLog) Append(m Message) {
	l.entries = append(l.entries, m)
}

// Snapshot returns a value-copy of the delivered sequence, in delivery
// order.
func (l *DeliveryLog) Snapshot() []Message {
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports how many messages have been delivered so far.
func (l *DeliveryLog) Len() int {
	return len(l.entries)
}
