package types

import "testing"

func TestDeliveryLog_AppendSnapshotOrder(t *testing.T) {
	var log DeliveryLog
	log.Append(Message{SenderID: 0, ReceiverID: 1, SeqNo: 1})
	log.Append(Message{SenderID: 0, ReceiverID: 1, SeqNo: 2})

	if log.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", log.Len())
	}
	snap := log.Snapshot()
	if len(snap) != 2 || snap[0].SeqNo != 1 || snap[1].SeqNo != 2 {
		t.Fatalf("Snapshot() out of order: %+v", snap)
	}

	// Mutating the snapshot must not affect the log.
	snap[0].SeqNo = 99
	if log.Snapshot()[0].SeqNo != 1 {
		t.Fatalf("Snapshot() aliased internal storage")
	}
}

func TestMessage_String(t *testing.T) {
	m := Message{SenderID: 1, ReceiverID: 2, SeqNo: 7}
	want := "msg#7 P1->P2"
	if got := m.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
