package circuit

// DAG represents a circuit as a directed acyclic graph over its gates.
// An edge i -> j means gate j is the next gate after i on some qubit wire.
// A full barrier sits on every wire.
type DAG struct {
	Gates     []Gate
	NumQubits int

	preds [][]int
	succs [][]int
}

// NewDAG builds the wire dependency graph of a circuit.
func NewDAG(c *Circuit) *DAG {
	return newDAG(c.Gates, c.NumQubits)
}

func newDAG(gates []Gate, numQubits int) *DAG {
	dag := &DAG{
		Gates:     gates,
		NumQubits: numQubits,
		preds:     make([][]int, len(gates)),
		succs:     make([][]int, len(gates)),
	}
	last := make([]int, numQubits)
	for q := range last {
		last[q] = -1
	}
	for i, g := range gates {
		wires := g.Qubits()
		if g.Type == TypeBarrier && g.Target < 0 {
			wires = make([]int, numQubits)
			for q := range wires {
				wires[q] = q
			}
		}
		for _, q := range wires {
			if p := last[q]; p >= 0 && !containsInt(dag.preds[i], p) {
				dag.preds[i] = append(dag.preds[i], p)
				dag.succs[p] = append(dag.succs[p], i)
			}
			last[q] = i
		}
	}
	return dag
}

// Reverse returns the DAG of the circuit with its gate order reversed.
// Node i of the reversed DAG is node len-1-i of the receiver.
func (dag *DAG) Reverse() *DAG {
	n := len(dag.Gates)
	gates := make([]Gate, n)
	for i, g := range dag.Gates {
		gates[n-1-i] = g
	}
	return newDAG(gates, dag.NumQubits)
}

// Len returns the number of nodes.
func (dag *DAG) Len() int {
	return len(dag.Gates)
}

// Predecessors returns the nodes gate i directly depends on.
func (dag *DAG) Predecessors(i int) []int {
	return dag.preds[i]
}

// Successors returns the nodes that directly depend on gate i.
func (dag *DAG) Successors(i int) []int {
	return dag.succs[i]
}

// InDegrees returns a fresh slice of predecessor counts, the starting state
// for a front-layer walk.
func (dag *DAG) InDegrees() []int {
	deg := make([]int, len(dag.Gates))
	for i, p := range dag.preds {
		deg[i] = len(p)
	}
	return deg
}

// FrontLayer returns the nodes with no predecessors, in program order.
func (dag *DAG) FrontLayer() []int {
	var front []int
	for i, p := range dag.preds {
		if len(p) == 0 {
			front = append(front, i)
		}
	}
	return front
}

// TopologicalOrder returns node indices in a stable topological order
// (program order is already topological).
func (dag *DAG) TopologicalOrder() []int {
	order := make([]int, len(dag.Gates))
	for i := range order {
		order[i] = i
	}
	return order
}

// Layers groups nodes by ASAP level: every node sits one layer after its
// latest predecessor.
func (dag *DAG) Layers() [][]int {
	level := make([]int, len(dag.Gates))
	var layers [][]int
	for i := range dag.Gates {
		l := 0
		for _, p := range dag.preds[i] {
			l = max(l, level[p]+1)
		}
		level[i] = l
		for len(layers) <= l {
			layers = append(layers, nil)
		}
		layers[l] = append(layers[l], i)
	}
	return layers
}

func containsInt(slice []int, val int) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}
