package core

import (
	"testing"

	"github.com/causalmesh/ses/pkg/ses/types"
)

func TestCausalityState_OnSend_IncrementsOwnComponent(t *testing.T) {
	c := newCausalityState(0, 3)
	vc, _ := c.onSend(1)
	if vc[0] != 1 {
		t.Fatalf("expected VC[self] incremented to 1, got %v", vc)
	}
}

func TestCausalityState_OnSend_UpdatesDependencyForOtherPeers(t *testing.T) {
	c := newCausalityState(0, 3)
	vc, _ := c.onSend(1) // send to peer 1, peer 2 is neither self nor target
	if got, ok := c.dep[2]; !ok || !got.Equal(vc) {
		t.Fatalf("expected D[2] merged with VC_after %v, got %v (ok=%v)", vc, got, ok)
	}
	if _, ok := c.dep[1]; ok {
		t.Fatalf("D[target] must not be updated by its own send: %v", c.dep[1])
	}
	if _, ok := c.dep[0]; ok {
		t.Fatalf("D[self] must never be populated")
	}
}

func TestCausalityState_OnSend_DepBeforeSnapshot(t *testing.T) {
	c := newCausalityState(0, 3)
	c.onSend(1) // populates dep[2]
	_, depBefore := c.onSend(2)
	// depBefore must reflect state prior to this second send's own bookkeeping,
	// i.e. it must still carry the dep[2] entry from the first send.
	if _, ok := depBefore[2]; !ok {
		t.Fatalf("depBefore lost the prior send's dependency entry: %v", depBefore)
	}
}

func TestCausalityState_OnDeliver_MergesVC(t *testing.T) {
	c := newCausalityState(1, 3)
	msg := types.Message{
		SenderID: 0,
		VC:       types.VectorTimestamp{3, 0, 1},
		Dep:      types.NewDependencyMap(),
	}
	c.onDeliver(msg)
	if c.vc[0] != 3 || c.vc[2] != 1 {
		t.Fatalf("onDeliver did not merge sender's VC: %v", c.vc)
	}
}

func TestCausalityState_OnDeliver_ClearsDependencyWhenSenderAbsent(t *testing.T) {
	c := newCausalityState(1, 3)
	c.dep.MergeInto(0, types.VectorTimestamp{5, 5, 5})

	msg := types.Message{
		SenderID: 0,
		VC:       types.VectorTimestamp{1, 0, 0},
		Dep:      types.NewDependencyMap(), // sender 0 not present in msg.Dep
	}
	c.onDeliver(msg)
	if _, ok := c.dep[0]; ok {
		t.Fatalf("expected D[sender] cleared after delivering a message that carried no dependency entry for it")
	}
}

func TestCausalityState_OnDeliver_PreservesDependencyWhenSenderPresent(t *testing.T) {
	c := newCausalityState(1, 3)
	msg := types.Message{
		SenderID: 0,
		VC:       types.VectorTimestamp{1, 0, 0},
		Dep: types.DependencyMap{
			0: types.VectorTimestamp{0, 0, 2},
		},
	}
	c.onDeliver(msg)
	if _, ok := c.dep[0]; !ok {
		t.Fatalf("expected D[sender] preserved when msg.Dep carried an entry for it")
	}
}
