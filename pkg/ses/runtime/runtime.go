// Package runtime implements ProcessRuntime (spec.md §4.4): the
// lifecycle that owns one receiver worker and N-1 sender workers per
// process, performs the startup handshake, and coordinates shutdown.
package runtime

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/causalmesh/ses/pkg/ses/core"
	"github.com/causalmesh/ses/pkg/ses/types"
	"github.com/causalmesh/ses/pkg/ses/wire"
)

// acceptTimeout bounds how long a blocking accept/read can run before a
// worker re-checks the running flag (spec.md §5 "Cancellation and
// timeouts").
const acceptTimeout = 2 * time.Second

// SenderState is the per-sender-worker state machine of spec.md §4.4.
type SenderState int

const (
	Idle SenderState = iota
	Handshaking
	Sending
	Done
)

func (s SenderState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Handshaking:
		return "Handshaking"
	case Sending:
		return "Sending"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Stats is a point-in-time snapshot of the per-process counters carried
// over from the original system's self.stats (SPEC_FULL.md §4 item 1).
type Stats struct {
	Received  uint64
	Delivered uint64
	Buffered  uint64
}

// ProcessRuntime owns one process's full lifecycle: handshake, receiver
// worker, N-1 sender workers, and coordinated shutdown (spec.md §4.4).
type ProcessRuntime struct {
	self int
	n    int
	cfg  *types.Configuration

	engine    *core.Engine
	transport types.PeerTransport
	logger    types.Logger

	rand *rand.Rand

	running   int32 // atomic bool: 1 while steady-state workers should keep going
	stopCh    chan struct{}
	stopOnce  sync.Once

	senderState []int32 // atomic SenderState per peer, indexed by target id

	stats struct {
		mu                 sync.Mutex
		received, delivered, buffered uint64
	}

	senderWG   sync.WaitGroup
	receiverWG sync.WaitGroup
}

// New constructs a ProcessRuntime for process self. transport must
// already be bound to self's endpoint (spec.md §4.4 Startup: "Bind the
// inbound transport endpoint").
func New(self int, cfg *types.Configuration, transport types.PeerTransport, logger types.Logger, events types.EventLogger) *ProcessRuntime {
	n := cfg.NumProcesses
	return &ProcessRuntime{
		self:        self,
		n:           n,
		cfg:         cfg,
		engine:      core.NewEngine(self, n, events),
		transport:   transport,
		logger:      logger,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano() + int64(self))),
		stopCh:      make(chan struct{}),
		senderState: make([]int32, n),
	}
}

// Engine exposes the underlying causality engine, mainly for tests that
// assert the testable properties of spec.md §8 directly.
func (p *ProcessRuntime) Engine() *core.Engine {
	return p.engine
}

// SenderState reports the current state-machine value for the sender
// worker targeting peer idx.
func (p *ProcessRuntime) SenderState(idx int) SenderState {
	return SenderState(atomic.LoadInt32(&p.senderState[idx]))
}

// Stats returns a snapshot of the receive-side counters.
func (p *ProcessRuntime) Stats() Stats {
	p.stats.mu.Lock()
	defer p.stats.mu.Unlock()
	return Stats{
		Received:  p.stats.received,
		Delivered: p.stats.delivered,
		Buffered:  p.stats.buffered,
	}
}

// Run performs the handshake, starts the receiver and sender workers,
// waits for every sender to emit its quota, drains for cfg.DrainInterval,
// then stops the receiver and closes the transport. It returns once
// shutdown is complete.
func (p *ProcessRuntime) Run(ctx context.Context) error {
	atomic.StoreInt32(&p.running, 1)

	if err := p.handshake(ctx); err != nil {
		return err
	}

	p.receiverWG.Add(1)
	go p.receiverLoop()

	for target := 0; target < p.n; target++ {
		if target == p.self {
			continue
		}
		p.senderWG.Add(1)
		go p.senderLoop(ctx, target)
	}

	p.senderWG.Wait()

	select {
	case <-time.After(p.cfg.DrainInterval):
	case <-ctx.Done():
	}

	p.Shutdown()
	return nil
}

// handshake implements spec.md §4.4 Startup: for every peer k != self,
// retry Connect at cfg.HandshakeRetryInterval until it succeeds. This
// establishes every peer is reachable before any sender starts, per
// spec.md §4.4 ("eliminating early-message loss") and scenario S5.
func (p *ProcessRuntime) handshake(ctx context.Context) error {
	for target := 0; target < p.n; target++ {
		if target == p.self {
			continue
		}
		atomic.StoreInt32(&p.senderState[target], int32(Handshaking))
		for {
			if !p.isRunning() {
				return types.ErrShuttingDown
			}
			err := p.transport.Connect(ctx, target)
			if err == nil {
				break
			}
			p.logger.Warnf("handshake with peer %d failed, retrying in %s: %v", target, p.cfg.HandshakeRetryInterval, err)
			select {
			case <-time.After(p.cfg.HandshakeRetryInterval):
			case <-ctx.Done():
				return ctx.Err()
			case <-p.stopCh:
				return types.ErrShuttingDown
			}
		}
	}
	return nil
}

func (p *ProcessRuntime) isRunning() bool {
	return atomic.LoadInt32(&p.running) == 1
}

// senderLoop implements one sender worker: Handshaking -> Sending -> Done
// (spec.md §4.4's per-sender state machine; Handshaking was already
// entered by handshake()).
func (p *ProcessRuntime) senderLoop(ctx context.Context, target int) {
	defer p.senderWG.Done()
	atomic.StoreInt32(&p.senderState[target], int32(Sending))

	quota := p.cfg.MessagesPerProcess
	for i := 0; i < quota; i++ {
		if !p.isRunning() {
			break
		}
		content := []byte(messageContent(i))
		if err := p.send(ctx, target, content); err != nil {
			p.logger.Errorf("send to peer %d failed: %v", target, err)
		}

		if i == quota-1 {
			break
		}
		delay := p.pacingDelay()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			atomic.StoreInt32(&p.senderState[target], int32(Done))
			return
		case <-p.stopCh:
			atomic.StoreInt32(&p.senderState[target], int32(Done))
			return
		}
	}
	atomic.StoreInt32(&p.senderState[target], int32(Done))
}

func messageContent(i int) string {
	return "message " + strconv.Itoa(i+1)
}

// pacingDelay returns a uniformly random inter-send delay derived from
// cfg.MessageRate bounds (spec.md §4.4: "pacing sends by a uniformly
// random inter-arrival time in [60/rate_max, 60/rate_min] seconds").
func (p *ProcessRuntime) pacingDelay() time.Duration {
	shortest := 60.0 / p.cfg.MessageRate.MaxPerMinute
	longest := 60.0 / p.cfg.MessageRate.MinPerMinute
	seconds := shortest + p.rand.Float64()*(longest-shortest)
	return time.Duration(seconds * float64(time.Second))
}

// send implements SendPath.send (spec.md §4.2): stamp, encode, hand off.
func (p *ProcessRuntime) send(ctx context.Context, target int, content []byte) error {
	uid := uuid.NewString()
	msg, err := p.engine.PrepareSend(target, content, uid)
	if err != nil {
		return err
	}

	frame, err := wire.Marshal(msg, p.n)
	if err != nil {
		return err
	}

	if err := p.transport.SendFrame(ctx, target, frame); err != nil {
		return &types.SendError{Target: target, Err: err}
	}
	return nil
}

// receiverLoop implements spec.md §4.4's single receiver worker: read
// inbound frames, decode, and route to ReceivePath.on_receive. A
// malformed frame or one addressed to a different receiver is logged and
// dropped (spec.md §7); neither is fatal.
func (p *ProcessRuntime) receiverLoop() {
	defer p.receiverWG.Done()
	for {
		select {
		case frame, ok := <-p.transport.Inbound():
			if !ok {
				return
			}
			p.handleFrame(frame)
		case <-p.stopCh:
			return
		case <-time.After(acceptTimeout):
			if !p.isRunning() {
				return
			}
		}
	}
}

func (p *ProcessRuntime) handleFrame(frame []byte) {
	msg, err := wire.Unmarshal(frame, p.n)
	if err != nil {
		p.logger.Warnf("dropping malformed frame: %v", err)
		return
	}
	if msg.ReceiverID != p.self {
		p.logger.Warnf("dropping frame addressed to peer %d, not self (%d)", msg.ReceiverID, p.self)
		return
	}

	p.stats.mu.Lock()
	p.stats.received++
	p.stats.mu.Unlock()

	before := p.engine.BufferLen()
	p.engine.OnReceive(msg)
	after := p.engine.BufferLen()

	p.stats.mu.Lock()
	p.stats.delivered = uint64(p.engine.DeliveredCount())
	if after > before {
		p.stats.buffered++
	}
	p.stats.mu.Unlock()
}

// Shutdown stops every worker and closes the transport. Idempotent
// (spec.md §4.4: "Shutdown is idempotent").
func (p *ProcessRuntime) Shutdown() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.running, 0)
		close(p.stopCh)
	})
	p.senderWG.Wait()
	p.receiverWG.Wait()
	p.transport.Close()
}
