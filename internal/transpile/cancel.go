package transpile

import (
	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
)

const commuteTol = 1e-9

// reduction classifies how a new CX on a pair could cancel against an
// earlier one.
type reduction int

const (
	reduceNone reduction = iota
	// reduceBlock: the earlier CX is the last gate on both wires.
	reduceBlock
	// reduceCommute0: only gates commuting with the control sit in between.
	reduceCommute0
	// reduceCommute1: gates commuting with the target sit in between.
	reduceCommute1
)

func (r reduction) String() string {
	switch r {
	case reduceBlock:
		return "block"
	case reduceCommute0:
		return "commute_0"
	case reduceCommute1:
		return "commute_1"
	}
	return "none"
}

// commutesOnControl reports whether g, acting on qubit q, commutes with a CX
// whose control is q.
func commutesOnControl(g circuit.Gate, q int) bool {
	if g.Control >= 0 {
		switch g.Type {
		case circuit.TypeCX:
			return g.Control == q
		case circuit.TypeCZ:
			return true
		}
		return false
	}
	m, ok := circuit.Unitary(g)
	return ok && m.IsDiagonal(commuteTol)
}

// commutesOnTarget reports whether g, acting on qubit q, commutes with a CX
// whose target is q.
func commutesOnTarget(g circuit.Gate, q int) bool {
	if g.Control >= 0 {
		return g.Type == circuit.TypeCX && g.Target == q
	}
	m, ok := circuit.Unitary(g)
	return ok && m.CommutesWithX(commuteTol)
}

// blocks reports whether g is a directive or measurement on qubit q.
func blocks(g circuit.Gate, q int) bool {
	switch g.Type {
	case circuit.TypeBarrier:
		return g.References(q)
	case circuit.TypeMeasure:
		return g.Target == q
	}
	return false
}

// findCancellable scans gates[:end] backwards for a CX on the pair {x, y}
// that a new CX in the same orientation would cancel against. Between the
// two, gates on the control wire must commute with the control and gates on
// the target wire with the target. With commute false only an immediately
// preceding CX qualifies. It returns the index of the earlier CX.
func findCancellable(gates []circuit.Gate, end, x, y int, commute bool) (int, reduction) {
	var between []int
	for i := end - 1; i >= 0; i-- {
		g := gates[i]
		if !g.References(x) && !g.References(y) {
			continue
		}
		if blocks(g, x) || blocks(g, y) {
			return -1, reduceNone
		}
		if g.Type == circuit.TypeCX &&
			((g.Control == x && g.Target == y) || (g.Control == y && g.Target == x)) {
			if kind := classify(gates, between, g.Control, g.Target); kind != reduceNone {
				return i, kind
			}
			return -1, reduceNone
		}
		if !commute || len(between) >= 16 {
			return -1, reduceNone
		}
		between = append(between, i)
	}
	return -1, reduceNone
}

func classify(gates []circuit.Gate, between []int, ctrl, tgt int) reduction {
	onControl, onTarget := false, false
	for _, bi := range between {
		g := gates[bi]
		if g.References(ctrl) {
			if !commutesOnControl(g, ctrl) {
				return reduceNone
			}
			onControl = true
		}
		if g.References(tgt) {
			if !commutesOnTarget(g, tgt) {
				return reduceNone
			}
			onTarget = true
		}
	}
	return kindFor(onControl, onTarget)
}

func kindFor(onControl, onTarget bool) reduction {
	switch {
	case onTarget:
		return reduceCommute1
	case onControl:
		return reduceCommute0
	}
	return reduceBlock
}

// cancelCX removes pairs of identical CX gates separated only by gates that
// commute with them, until no pair is left. With commute false only
// adjacent pairs cancel. It returns the number of gates removed.
func cancelCX(c *circuit.Circuit, commute bool) int {
	return cancelPairs(c, circuit.TypeCX, commute)
}

// cancelPairs removes self-inverse two-qubit gates of one type that meet
// again on the same qubits. Commutation is only understood for CX.
func cancelPairs(c *circuit.Circuit, gateType string, commute bool) int {
	commute = commute && gateType == circuit.TypeCX
	removedTotal := 0
	for {
		gates := c.Gates
		removed := make([]bool, len(gates))
		count := 0
		for i, g := range gates {
			if g.Type != gateType || removed[i] {
				continue
			}
			j := matching(gates, removed, i, commute)
			if j >= 0 {
				removed[i], removed[j] = true, true
				count += 2
			}
		}
		if count == 0 {
			return removedTotal
		}
		removedTotal += count
		out := c.CopyEmpty()
		for i, g := range gates {
			if !removed[i] {
				out.Append(g)
			}
		}
		c.Gates, c.MaxSteps = out.Gates, out.MaxSteps
	}
}

// matching finds an earlier live gate identical to gates[i] that cancels
// with it, or -1.
func matching(gates []circuit.Gate, removed []bool, i int, commute bool) int {
	g := gates[i]
	ctrl, tgt := g.Control, g.Target
	for j := i - 1; j >= 0; j-- {
		if removed[j] {
			continue
		}
		h := gates[j]
		if !h.References(ctrl) && !h.References(tgt) {
			continue
		}
		if h.Type == g.Type && h.Control == ctrl && h.Target == tgt {
			return j
		}
		if !commute || blocks(h, ctrl) || blocks(h, tgt) {
			return -1
		}
		if h.References(ctrl) && !commutesOnControl(h, ctrl) {
			return -1
		}
		if h.References(tgt) && !commutesOnTarget(h, tgt) {
			return -1
		}
	}
	return -1
}

// decomposeSwaps expands every SWAP into three CX. The outer pair is
// oriented to cancel against a neighbouring CX on the same qubits when there
// is one, and along the native coupling direction otherwise.
func decomposeSwaps(c *circuit.Circuit, b *backend.Backend, commute bool) *circuit.Circuit {
	out := c.CopyEmpty()
	for i, g := range c.Gates {
		if g.Type != circuit.TypeSwap {
			out.Append(g)
			continue
		}
		x, y := g.Control, g.Target
		ctrl, tgt := x, y
		if j, kind := findCancellable(out.Gates, len(out.Gates), x, y, commute); kind != reduceNone {
			ctrl, tgt = out.Gates[j].Control, out.Gates[j].Target
		} else if nc, nt, ok := nextCX(c.Gates, i+1, x, y); ok {
			ctrl, tgt = nc, nt
		} else if e, ok := b.NativeDirection(x, y); ok {
			ctrl, tgt = e.Control, e.Target
		}
		out.AddGate(circuit.TypeCX, tgt, ctrl)
		out.AddGate(circuit.TypeCX, ctrl, tgt)
		out.AddGate(circuit.TypeCX, tgt, ctrl)
	}
	return out
}

// nextCX returns the orientation of the next CX on {x, y} when it directly
// follows position start on both wires.
func nextCX(gates []circuit.Gate, start, x, y int) (int, int, bool) {
	for _, g := range gates[start:] {
		if !g.References(x) && !g.References(y) {
			continue
		}
		if g.Type == circuit.TypeCX &&
			((g.Control == x && g.Target == y) || (g.Control == y && g.Target == x)) {
			return g.Control, g.Target, true
		}
		return 0, 0, false
	}
	return 0, 0, false
}
