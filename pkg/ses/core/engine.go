package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/causalmesh/ses/pkg/ses/types"
)

// Engine owns the single shared mutable state of spec.md §5: the
// causalityState, the message buffer, and the delivery log, all protected
// by one mutex (the "causality mutex"). SendPath and ReceivePath are both
// methods on Engine so that on_send, on_receive/can_deliver/deliver/
// drain_buffer, and the buffer append all serialize through the same lock.
type Engine struct {
	mu sync.Mutex

	self  int
	n     int
	state *causalityState

	buffer []types.Message
	log    types.DeliveryLog

	sendSeq []uint64 // per-target send counters, indexed by target peer id

	events types.EventLogger // may be nil
}

// NewEngine constructs an Engine for process self among n total processes.
func NewEngine(self, n int, events types.EventLogger) *Engine {
	return &Engine{
		self:    self,
		n:       n,
		state:   newCausalityState(self, n),
		sendSeq: make([]uint64, n),
		events:  events,
	}
}

// SnapshotVC returns a value-copy of the engine's current vector clock.
// Safe for concurrent use.
func (e *Engine) SnapshotVC() types.VectorTimestamp {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.snapshotVC()
}

// SnapshotDep returns a value-copy of the engine's dependency map. Safe
// for concurrent use.
func (e *Engine) SnapshotDep() types.DependencyMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.snapshotDep()
}

// DeliveredMessages returns a value-copy of the delivery log, in delivery
// order. Used by tests to assert the testable properties of spec.md §8.
func (e *Engine) DeliveredMessages() []types.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Snapshot()
}

// BufferLen reports how many messages are currently held pending
// delivery. Used by tests asserting property 3 ("no spurious buffering").
func (e *Engine) BufferLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buffer)
}

// DeliveredCount reports how many messages have been delivered so far.
func (e *Engine) DeliveredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Len()
}

// --- SendPath (spec.md §4.2) ---------------------------------------------

// PrepareSend performs the causality bookkeeping of send(target, content)
// and returns a fully-stamped Message ready for encoding and hand-off to
// the transport. It does not perform any I/O itself: spec.md §5 requires
// the bookkeeping to be inside the causality mutex but transport I/O to
// happen outside it, to avoid head-of-line blocking across unrelated
// peers. The increment-then-snapshot step (spec.md §4.2's "ordering
// contract") is what must be atomic, and it is: everything here runs
// under e.mu, so no concurrent send or delivery on this process can
// observe or mutate VC/D mid-stamp.
func (e *Engine) PrepareSend(target int, content []byte, uid string) (types.Message, error) {
	if target == e.self {
		return types.Message{}, types.ErrSendToSelf
	}
	if target < 0 || target >= e.n {
		return types.Message{}, types.ErrUnknownPeer
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vc, dep := e.state.onSend(target)
	e.sendSeq[target]++
	msg := types.Message{
		SenderID:   e.self,
		ReceiverID: target,
		Content:    content,
		VC:         vc,
		Dep:        dep,
		SeqNo:      e.sendSeq[target],
		UID:        uid,
	}

	if e.events != nil {
		e.events.LogEvent(types.EventSent, msg, vc, dep, "")
	}

	return msg, nil
}

// --- ReceivePath (spec.md §4.3) ------------------------------------------

// canDeliver implements the delivery predicate of spec.md §4.3. Caller
// must hold e.mu.
func (e *Engine) canDeliver(msg types.Message) bool {
	depSelf, ok := msg.Dep[e.self]
	if !ok {
		return true
	}
	return depSelf.LessEqual(e.state.vc)
}

// OnReceive implements spec.md §4.3 on_receive(msg): if the predicate
// holds, deliver immediately and then drain the buffer; otherwise buffer.
// Malformed frames must never reach this method — wire.Unmarshal rejects
// those before decoding produces a types.Message (spec.md §7).
func (e *Engine) OnReceive(msg types.Message) {
	if e.events != nil {
		e.events.LogEvent(types.EventReceived, msg, nil, nil, "")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.canDeliver(msg) {
		e.deliverLocked(msg)
		e.drainBufferLocked()
		return
	}

	e.buffer = append(e.buffer, msg)
	if e.events != nil {
		e.events.LogEvent(types.EventBuffered, msg, e.state.snapshotVC(), nil, e.explainBufferReason(msg))
	}
}

// deliverLocked applies on_deliver(msg), appends to the delivery log, and
// notifies the logger sink. Caller must hold e.mu.
func (e *Engine) deliverLocked(msg types.Message) {
	e.state.onDeliver(msg)
	e.log.Append(msg)
	if e.events != nil {
		e.events.LogEvent(types.EventDelivered, msg, e.state.snapshotVC(), e.state.snapshotDep(), "")
	}
}

// drainBufferLocked implements spec.md §4.3 drain_buffer(): repeated scans
// until a full pass makes no progress, each pass ordered by
// (sender_id, msg.vc[sender_id]) ascending so the earliest message from a
// given sender is tried first. Caller must hold e.mu.
func (e *Engine) drainBufferLocked() {
	for {
		if len(e.buffer) == 0 {
			return
		}
		sort.SliceStable(e.buffer, func(i, j int) bool {
			a, b := e.buffer[i], e.buffer[j]
			if a.SenderID != b.SenderID {
				return a.SenderID < b.SenderID
			}
			return a.VC[a.SenderID] < b.VC[b.SenderID]
		})

		progressed := false
		remaining := e.buffer[:0]
		for _, msg := range e.buffer {
			if e.canDeliver(msg) {
				e.deliverLocked(msg)
				if e.events != nil {
					e.events.LogEvent(types.EventUnbuffered, msg, e.state.snapshotVC(), nil, "")
				}
				progressed = true
				continue
			}
			remaining = append(remaining, msg)
		}
		e.buffer = remaining

		// Loop terminates: each pass either strictly shrinks the buffer
		// (progressed == true) or leaves it unchanged, in which case no
		// further pass can deliver anything either (spec.md §4.3).
		if !progressed {
			return
		}
	}
}

// explainBufferReason computes a human-readable reason a message could
// not be delivered (SPEC_FULL.md §4 item 2, grounded on
// original_source/single_process.py's buffer_message()). It runs every
// time a message is buffered while an event logger is set, and its result
// is the reason field of the BUFFERED event. Caller must hold e.mu.
func (e *Engine) explainBufferReason(msg types.Message) string {
	depSelf, ok := msg.Dep[e.self]
	if !ok {
		return ""
	}
	reasons := make([]string, 0, 1)
	for i, want := range depSelf {
		if i < len(e.state.vc) && e.state.vc[i] < want {
			reasons = append(reasons, indexedShortfall(i, e.state.vc[i], want))
		}
	}
	if len(reasons) == 0 {
		return ""
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}

func indexedShortfall(i int, have, want uint64) string {
	return fmt.Sprintf("VC[%d]=%d < dep[%d]=%d", i, have, i, want)
}
