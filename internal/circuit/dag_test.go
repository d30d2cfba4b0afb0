package circuit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDAGEdges(t *testing.T) {
	c := New(3, 0)
	c.AddGate(TypeH, 0)     // 0
	c.AddGate(TypeH, 2)     // 1
	c.AddGate(TypeCX, 1, 0) // 2
	c.AddGate(TypeCX, 2, 1) // 3
	c.AddBarrier()          // 4
	c.AddGate(TypeX, 0)     // 5

	dag := NewDAG(c)
	if diff := cmp.Diff([]int{0, 1}, dag.FrontLayer()); diff != "" {
		t.Errorf("front layer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1}, dag.Predecessors(3)); diff != "" {
		t.Errorf("predecessors of 3 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, dag.Predecessors(4)); diff != "" {
		t.Errorf("barrier predecessors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 1, 2, 2, 1}, dag.InDegrees()); diff != "" {
		t.Errorf("in-degrees (-want +got):\n%s", diff)
	}
	want := [][]int{{0, 1}, {2}, {3}, {4}, {5}}
	if diff := cmp.Diff(want, dag.Layers()); diff != "" {
		t.Errorf("layers (-want +got):\n%s", diff)
	}
}

func TestDAGReverse(t *testing.T) {
	c := New(2, 0)
	c.AddGate(TypeH, 0)
	c.AddGate(TypeCX, 1, 0)
	c.AddGate(TypeX, 1)

	rev := NewDAG(c).Reverse()
	if rev.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", rev.Len())
	}
	if rev.Gates[0].Type != TypeX || rev.Gates[2].Type != TypeH {
		t.Fatalf("unexpected reversed order: %v", rev.Gates)
	}
	if diff := cmp.Diff([]int{0}, rev.FrontLayer()); diff != "" {
		t.Errorf("front layer (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, rev.Successors(1)); diff != "" {
		t.Errorf("successors (-want +got):\n%s", diff)
	}
}
