package transpile

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
)

var (
	// ErrUnsupportedGate is returned for gates the unroller cannot expand.
	ErrUnsupportedGate = errors.New("unsupported gate")
	// ErrNotMapped is returned when a transpiled circuit still holds a gate
	// the device cannot run.
	ErrNotMapped = errors.New("circuit not mapped to device")
)

const angleTol = 1e-9

// unroll rewrites every two-qubit gate in terms of CX. Single-qubit gates
// pass through.
func unroll(c *circuit.Circuit) (*circuit.Circuit, error) {
	out := c.CopyEmpty()
	for _, g := range c.Gates {
		if !circuit.Known(g.Type) {
			return nil, fmt.Errorf("unroll: %w: %s", ErrUnsupportedGate, g)
		}
		switch g.Type {
		case circuit.TypeCZ:
			out.AddGate(circuit.TypeH, g.Target)
			out.AddGate(circuit.TypeCX, g.Target, g.Control)
			out.AddGate(circuit.TypeH, g.Target)
		case circuit.TypeSwap:
			a, b := g.Control, g.Target
			out.AddGate(circuit.TypeCX, b, a)
			out.AddGate(circuit.TypeCX, a, b)
			out.AddGate(circuit.TypeCX, b, a)
		case circuit.TypeECR:
			out.AddParameterizedGate(circuit.TypeRX, g.Target, []float64{-math.Pi / 2})
			out.AddParameterizedGate(circuit.TypeRY, g.Control, []float64{-math.Pi})
			out.AddParameterizedGate(circuit.TypeRZ, g.Control, []float64{math.Pi / 2})
			out.AddGate(circuit.TypeCX, g.Target, g.Control)
		default:
			out.Append(g)
		}
	}
	return out, nil
}

// appendCXAsECR emits CX(ctrl, tgt) as an ECR in the same direction plus
// single-qubit corrections.
func appendCXAsECR(out *circuit.Circuit, ctrl, tgt int) {
	out.AddParameterizedGate(circuit.TypeRZ, ctrl, []float64{-math.Pi / 2})
	out.AddParameterizedGate(circuit.TypeRY, ctrl, []float64{math.Pi})
	out.AddParameterizedGate(circuit.TypeRX, tgt, []float64{math.Pi / 2})
	out.AddGate(circuit.TypeECR, tgt, ctrl)
}

// translateCX replaces every CX by an ECR on the native direction of its
// coupling, flipping with Hadamards when the CX runs against it. Pairs with
// no coupling keep the CX direction.
func translateCX(c *circuit.Circuit, b *backend.Backend) *circuit.Circuit {
	out := c.CopyEmpty()
	for _, g := range c.Gates {
		if g.Type != circuit.TypeCX {
			out.Append(g)
			continue
		}
		ctrl, tgt := g.Control, g.Target
		if e, ok := b.NativeDirection(ctrl, tgt); ok && e.Control != ctrl {
			out.AddGate(circuit.TypeH, ctrl)
			out.AddGate(circuit.TypeH, tgt)
			appendCXAsECR(out, tgt, ctrl)
			out.AddGate(circuit.TypeH, ctrl)
			out.AddGate(circuit.TypeH, tgt)
			continue
		}
		appendCXAsECR(out, ctrl, tgt)
	}
	return out
}

// eulerZYZ returns θ, φ, λ with m = e^{iα}·RZ(φ)·RY(θ)·RZ(λ).
func eulerZYZ(m circuit.Matrix2) (theta, phi, lambda float64) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	scale := cmplx.Sqrt(det)
	var v circuit.Matrix2
	for i := range 2 {
		for j := range 2 {
			v[i][j] = m[i][j] / scale
		}
	}
	theta = 2 * math.Atan2(cmplx.Abs(v[1][0]), cmplx.Abs(v[0][0]))
	sum := cmplx.Phase(v[1][1]) - cmplx.Phase(v[0][0])
	diff := cmplx.Phase(v[1][0]) - cmplx.Phase(-v[0][1])
	return theta, (sum + diff) / 2, (sum - diff) / 2
}

// synthesizeZSX returns a run of rz/sx/x gates on qubit q equal to m up to
// global phase.
func synthesizeZSX(m circuit.Matrix2, q int) []circuit.Gate {
	if m.EqualUpToPhase(circuit.Identity2, angleTol) {
		return nil
	}
	theta, phi, lambda := eulerZYZ(m)
	var run []circuit.Gate
	rz := func(a float64) {
		a = circuit.NormalizeAngle(a)
		if math.Abs(a) < angleTol {
			return
		}
		run = append(run, circuit.Gate{Type: circuit.TypeRZ, Target: q, Control: -1, Params: []float64{a}, Clbit: -1})
	}
	fixed := func(typ string) {
		run = append(run, circuit.Gate{Type: typ, Target: q, Control: -1, Clbit: -1})
	}
	switch {
	case math.Abs(theta) < angleTol:
		rz(phi + lambda)
	case math.Abs(theta-math.Pi/2) < angleTol:
		rz(lambda - math.Pi/2)
		fixed(circuit.TypeSX)
		rz(phi + math.Pi/2)
	case math.Abs(theta-math.Pi) < angleTol:
		rz(lambda - math.Pi/2)
		fixed(circuit.TypeX)
		rz(phi + math.Pi/2)
	default:
		rz(lambda - math.Pi)
		fixed(circuit.TypeSX)
		rz(math.Pi - theta)
		fixed(circuit.TypeSX)
		rz(phi)
	}
	return run
}

func inZSXBasis(run []circuit.Gate) bool {
	for _, g := range run {
		switch g.Type {
		case circuit.TypeRZ, circuit.TypeSX, circuit.TypeX:
		default:
			return false
		}
	}
	return true
}

// optimize1q fuses every run of single-qubit gates on a wire and emits it
// in the rz/sx/x basis.
func optimize1q(c *circuit.Circuit) *circuit.Circuit {
	out := c.CopyEmpty()
	pending := make([][]circuit.Gate, c.NumQubits)

	flush := func(q int) {
		run := pending[q]
		pending[q] = nil
		if len(run) == 0 {
			return
		}
		m := circuit.Identity2
		for _, g := range run {
			u, _ := circuit.Unitary(g)
			m = u.Mul(m)
		}
		synth := synthesizeZSX(m, q)
		if inZSXBasis(run) && len(run) <= len(synth) {
			synth = run
		}
		for _, g := range synth {
			out.Append(g)
		}
	}

	for _, g := range c.Gates {
		if g.Control < 0 && g.Target >= 0 && !g.IsDirective() && g.Type != circuit.TypeMeasure {
			if _, ok := circuit.Unitary(g); ok {
				pending[g.Target] = append(pending[g.Target], g)
				continue
			}
		}
		for q := range pending {
			if g.References(q) {
				flush(q)
			}
		}
		out.Append(g)
	}
	for q := range pending {
		flush(q)
	}
	return out
}

// checkMapped verifies that every operation is native to the device.
func checkMapped(c *circuit.Circuit, b *backend.Backend) error {
	for _, g := range c.Gates {
		switch {
		case g.IsDirective(), g.Type == circuit.TypeMeasure:
		case g.Control >= 0:
			if g.Type != circuit.TypeECR || !b.Coupling.HasDirected(g.Control, g.Target) {
				return fmt.Errorf("%w: %s", ErrNotMapped, g)
			}
		case !b.SupportsGate(circuit.QASMName(g.Type)):
			return fmt.Errorf("%w: %s not in basis", ErrNotMapped, g)
		}
	}
	return nil
}
