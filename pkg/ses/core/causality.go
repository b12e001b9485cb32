// Package core implements the per-process causality bookkeeping, send
// path and receive path of the SES causal-ordering protocol (spec.md §4).
package core

import "github.com/causalmesh/ses/pkg/ses/types"

// causalityState is the per-process VC + dependency map pair of spec.md
// §4.1. It exposes the four SES operations; none of its methods lock
// anything themselves — callers (Engine's send and receive paths) must
// hold the single causality mutex described in spec.md §5
// before calling any of them.
type causalityState struct {
	self int
	n    int
	vc   types.VectorTimestamp
	dep  types.DependencyMap
}

func newCausalityState(self, n int) *causalityState {
	return &causalityState{
		self: self,
		n:    n,
		vc:   types.NewVectorTimestamp(n),
		dep:  types.NewDependencyMap(),
	}
}

// snapshotVC returns a value-copy of VC.
func (c *causalityState) snapshotVC() types.VectorTimestamp {
	return c.vc.Copy()
}

// snapshotDep returns a deep value-copy of D.
func (c *causalityState) snapshotDep() types.DependencyMap {
	return c.dep.Copy()
}

// onSend implements spec.md §4.1 on_send(target).
func (c *causalityState) onSend(target int) (vcAfter types.VectorTimestamp, depBefore types.DependencyMap) {
	// 1. VC[p] += 1.
	c.vc[c.self]++

	// 2. Take D_before and VC_after.
	depBefore = c.snapshotDep()
	vcAfter = c.snapshotVC()

	// 3. For every k != p, k != target: D[k] = merge(D[k], VC_after).
	for k := 0; k < c.n; k++ {
		if k == c.self || k == target {
			continue
		}
		c.dep.MergeInto(k, vcAfter)
	}

	// 4. Return (VC_after, D_before).
	return vcAfter, depBefore
}

// onDeliver implements spec.md §4.1 on_deliver(msg).
func (c *causalityState) onDeliver(msg types.Message) {
	// 1. For every i != p: VC[i] = max(VC[i], msg.vc[i]).
	for i := 0; i < c.n && i < len(msg.VC); i++ {
		if i == c.self {
			continue
		}
		if msg.VC[i] > c.vc[i] {
			c.vc[i] = msg.VC[i]
		}
	}

	// 2. For every k != p: if msg.dep has an entry for k, D[k] = merge(D[k], msg.dep[k]).
	sawSender := false
	for k := 0; k < c.n; k++ {
		if k == c.self {
			continue
		}
		if vt, ok := msg.Dep[k]; ok {
			c.dep.MergeInto(k, vt)
			if k == msg.SenderID {
				sawSender = true
			}
		}
	}

	// 3. D[sender] is cleared unless msg.dep specified it (handled by step 2
	// above, which already merged it in that case); otherwise it is reset
	// to empty. Per spec.md §4.1 step 3 and the "Ambiguity in the source"
	// note (§9), this happens after the predicate has already been
	// evaluated by the caller (Engine's receive path), never before.
	if !sawSender {
		c.dep.Clear(msg.SenderID)
	}
}
