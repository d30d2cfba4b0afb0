package circuit

import (
	"math"
	"math/cmplx"
	"strings"
)

// Gate type names. Names are upper case everywhere in the gate model and
// lower case in QASM.
const (
	TypeH       = "H"
	TypeX       = "X"
	TypeY       = "Y"
	TypeZ       = "Z"
	TypeS       = "S"
	TypeSdg     = "SDG"
	TypeT       = "T"
	TypeTdg     = "TDG"
	TypeSX      = "SX"
	TypeID      = "ID"
	TypeRX      = "RX"
	TypeRY      = "RY"
	TypeRZ      = "RZ"
	TypeP       = "P"
	TypeU       = "U"
	TypeCX      = "CX"
	TypeCZ      = "CZ"
	TypeECR     = "ECR"
	TypeSwap    = "SWAP"
	TypeBarrier = "BARRIER"
	TypeMeasure = "MEASURE"
)

// gateSpec describes a gate kind known to the circuit model.
type gateSpec struct {
	name    string
	symbol  string
	qubits  int
	params  int
	diagram string // label used by text diagrams
}

// gateCatalog lists every gate the model understands, grouped the way the
// diagrams and the QASM writer look them up.
var gateCatalog = map[string]gateSpec{
	TypeH:       {name: "Hadamard", symbol: "h", qubits: 1},
	TypeX:       {name: "Pauli-X", symbol: "x", qubits: 1},
	TypeY:       {name: "Pauli-Y", symbol: "y", qubits: 1},
	TypeZ:       {name: "Pauli-Z", symbol: "z", qubits: 1},
	TypeS:       {name: "Phase (S)", symbol: "s", qubits: 1},
	TypeSdg:     {name: "Phase Dagger", symbol: "sdg", qubits: 1, diagram: "S†"},
	TypeT:       {name: "T Gate", symbol: "t", qubits: 1},
	TypeTdg:     {name: "T Dagger", symbol: "tdg", qubits: 1, diagram: "T†"},
	TypeSX:      {name: "√X", symbol: "sx", qubits: 1, diagram: "√X"},
	TypeID:      {name: "Identity", symbol: "id", qubits: 1, diagram: "I"},
	TypeRX:      {name: "Rotate X", symbol: "rx", qubits: 1, params: 1},
	TypeRY:      {name: "Rotate Y", symbol: "ry", qubits: 1, params: 1},
	TypeRZ:      {name: "Rotate Z", symbol: "rz", qubits: 1, params: 1},
	TypeP:       {name: "Phase Shift", symbol: "p", qubits: 1, params: 1},
	TypeU:       {name: "Universal U", symbol: "u", qubits: 1, params: 3},
	TypeCX:      {name: "CNOT", symbol: "cx", qubits: 2},
	TypeCZ:      {name: "CZ", symbol: "cz", qubits: 2},
	TypeECR:     {name: "Echoed Cross-Resonance", symbol: "ecr", qubits: 2},
	TypeSwap:    {name: "SWAP", symbol: "swap", qubits: 2},
	TypeBarrier: {name: "Barrier", symbol: "barrier"},
	TypeMeasure: {name: "Measure", symbol: "measure", qubits: 1, diagram: "M"},
}

// Known reports whether the gate type is part of the catalog.
func Known(gateType string) bool {
	_, ok := gateCatalog[gateType]
	return ok
}

// IsParameterized reports whether gates of this type carry angles.
func IsParameterized(gateType string) bool {
	return gateCatalog[gateType].params > 0
}

// NumParams returns how many angles a gate type takes.
func NumParams(gateType string) int {
	return gateCatalog[gateType].params
}

// IsTwoQubit reports whether the gate type acts on two qubits.
func IsTwoQubit(gateType string) bool {
	return gateCatalog[gateType].qubits == 2
}

// QASMName returns the OpenQASM 2.0 mnemonic for the gate type.
func QASMName(gateType string) string {
	if spec, ok := gateCatalog[gateType]; ok {
		return spec.symbol
	}
	return strings.ToLower(gateType)
}

// DisplayName returns a short label for text diagrams.
func DisplayName(gateType string) string {
	if spec, ok := gateCatalog[gateType]; ok && spec.diagram != "" {
		return spec.diagram
	}
	return gateType
}

// Matrix2 is a single-qubit unitary in row-major order.
type Matrix2 [2][2]complex128

// Mul returns m·o.
func (m Matrix2) Mul(o Matrix2) Matrix2 {
	var r Matrix2
	for i := range 2 {
		for j := range 2 {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j]
		}
	}
	return r
}

// EqualUpToPhase reports whether m and o differ only by a global phase.
func (m Matrix2) EqualUpToPhase(o Matrix2, tol float64) bool {
	// Pick the largest entry of o to fix the relative phase.
	bi, bj := 0, 0
	for i := range 2 {
		for j := range 2 {
			if cmplx.Abs(o[i][j]) > cmplx.Abs(o[bi][bj]) {
				bi, bj = i, j
			}
		}
	}
	if cmplx.Abs(m[bi][bj]) < tol {
		return false
	}
	phase := m[bi][bj] / o[bi][bj]
	phase /= complex(cmplx.Abs(phase), 0)
	for i := range 2 {
		for j := range 2 {
			if cmplx.Abs(m[i][j]-phase*o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// IsDiagonal reports whether the off-diagonal entries vanish.
func (m Matrix2) IsDiagonal(tol float64) bool {
	return cmplx.Abs(m[0][1]) < tol && cmplx.Abs(m[1][0]) < tol
}

// CommutesWithX reports whether m commutes with Pauli X, i.e. it is an X
// rotation up to phase.
func (m Matrix2) CommutesWithX(tol float64) bool {
	return cmplx.Abs(m[0][0]-m[1][1]) < tol && cmplx.Abs(m[0][1]-m[1][0]) < tol
}

// Identity2 is the single-qubit identity.
var Identity2 = Matrix2{{1, 0}, {0, 1}}

// RZMatrix returns diag(e^{-iθ/2}, e^{iθ/2}).
func RZMatrix(theta float64) Matrix2 {
	return Matrix2{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

// RXMatrix returns exp(-iθX/2).
func RXMatrix(theta float64) Matrix2 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return Matrix2{{c, s}, {s, c}}
}

// RYMatrix returns exp(-iθY/2).
func RYMatrix(theta float64) Matrix2 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return Matrix2{{c, -s}, {s, c}}
}

// UMatrix returns RZ(φ)·RY(θ)·RZ(λ).
func UMatrix(theta, phi, lambda float64) Matrix2 {
	return RZMatrix(phi).Mul(RYMatrix(theta)).Mul(RZMatrix(lambda))
}

// Unitary returns the matrix of a bound single-qubit gate. The second
// result is false for multi-qubit gates, directives and unbound gates.
func Unitary(g Gate) (Matrix2, bool) {
	if g.Param != nil || IsTwoQubit(g.Type) {
		return Matrix2{}, false
	}
	angle := func(i int) float64 {
		if i < len(g.Params) {
			return g.Params[i]
		}
		return 0
	}
	h := complex(1/math.Sqrt2, 0)
	switch g.Type {
	case TypeH:
		return Matrix2{{h, h}, {h, -h}}, true
	case TypeX:
		return Matrix2{{0, 1}, {1, 0}}, true
	case TypeY:
		return Matrix2{{0, -1i}, {1i, 0}}, true
	case TypeZ:
		return Matrix2{{1, 0}, {0, -1}}, true
	case TypeS:
		return Matrix2{{1, 0}, {0, 1i}}, true
	case TypeSdg:
		return Matrix2{{1, 0}, {0, -1i}}, true
	case TypeT:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, true
	case TypeTdg:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}, true
	case TypeSX:
		return Matrix2{{(1 + 1i) / 2, (1 - 1i) / 2}, {(1 - 1i) / 2, (1 + 1i) / 2}}, true
	case TypeID:
		return Identity2, true
	case TypeRX:
		return RXMatrix(angle(0)), true
	case TypeRY:
		return RYMatrix(angle(0)), true
	case TypeRZ:
		return RZMatrix(angle(0)), true
	case TypeP:
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, angle(0)))}}, true
	case TypeU:
		return UMatrix(angle(0), angle(1), angle(2)), true
	}
	return Matrix2{}, false
}
