// Package ansatz builds the 9-qubit hardware-efficient reference circuit and
// the reduced circuits obtained by excising one of its qubits.
package ansatz

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"nasscbench/internal/circuit"
)

const (
	// NumQubits is the width of the reference circuit.
	NumQubits = 9
	// DefaultExcise is the qubit removed for the benchmark circuit.
	DefaultExcise = 1
	// NoExcise keeps the full reference circuit.
	NoExcise = -1
)

// ErrExcise is returned for an excise index outside the reference register.
var ErrExcise = errors.New("excised qubit out of range")

// optimalParams are the trained angles for the 8-qubit circuit without
// qubit 1, in parameter creation order.
var optimalParams = []float64{
	1.82876858, 3.24641369, 1.62958088, 1.65092094, 1.53970519, 1.48885995,
	1.61360675, 1.60338138, -0.05674933, 3.22233972, 1.71074834, 2.3904894,
	2.39006873, 1.90057308, 1.12667496, 2.54757948, 2.69105695, 1.96807924,
	-0.16380074, 3.00825887, 1.21191047, 2.04409067, -0.08081124, 0.15129047,
	2.3650488, 1.00597256, 0.50819349, 2.14206603, 3.13022607, 1.08640352,
	1.38612094, 2.80729928, 3.10398523, 1.97687435, 1.47502558, 2.19573618,
	2.2425441, 1.24964191, 1.03914953, 1.90718493,
}

// OptimalParams returns a copy of the trained parameter vector.
func OptimalParams() []float64 {
	return slices.Clone(optimalParams)
}

// QubitMap maps reference qubit indices to the contiguous indices of the
// reduced register. The excised qubit has no entry.
func QubitMap(excise int) (map[int]int, error) {
	if excise != NoExcise && (excise < 0 || excise >= NumQubits) {
		return nil, fmt.Errorf("%w: %d", ErrExcise, excise)
	}
	m := make(map[int]int, NumQubits)
	next := 0
	for q := range NumQubits {
		if q == excise {
			continue
		}
		m[q] = next
		next++
	}
	return m, nil
}

// reference builds the full 9-qubit table without measurements. Parameters
// are created in table order: one per RY of the initial layer, then one per
// RZ column.
func reference() *circuit.Circuit {
	c := circuit.New(NumQubits, 0)
	for q := range NumQubits {
		c.AddGate(circuit.TypeH, q)
		c.AddSymbolicGate(circuit.TypeRY, q, c.NewParameter())
	}
	c.AddBarrier()

	for _, e := range columns {
		switch e.op {
		case rxPlus:
			c.AddParameterizedGate(circuit.TypeRX, e.a, []float64{math.Pi / 2})
		case rxMinus:
			c.AddParameterizedGate(circuit.TypeRX, e.a, []float64{-math.Pi / 2})
		case rzParam:
			c.AddSymbolicGate(circuit.TypeRZ, e.a, c.NewParameter())
		case cnot:
			c.AddGate(circuit.TypeCX, e.b, e.a)
		}
	}
	c.AddBarrier()
	return c
}

// Build returns the reference circuit with every gate that touches the
// excised qubit removed and the remaining qubits renumbered through
// QubitMap. Surviving parameters keep their table order, so the result has
// one parameter per RY of the initial layer plus one per surviving RZ column.
func Build(excise int) (*circuit.Circuit, error) {
	qmap, err := QubitMap(excise)
	if err != nil {
		return nil, err
	}
	c := reference()
	if excise != NoExcise {
		c.RemoveGatesOnQubit(excise)
	}
	out, err := c.Remap(qmap, len(qmap))
	if err != nil {
		return nil, fmt.Errorf("excise qubit %d: %w", excise, err)
	}
	out.MeasureAll()
	return out, nil
}

// Reduced builds the benchmark circuit: the reference without qubit 1.
func Reduced() *circuit.Circuit {
	c, err := Build(DefaultExcise)
	if err != nil {
		panic(err)
	}
	return c
}
