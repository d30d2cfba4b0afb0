package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"nasscbench/internal/circuit"
)

// StateVector is a pure n-qubit state. Qubit q is bit q of the amplitude
// index.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector returns |0...0>.
func NewStateVector(numQubits int) *StateVector {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// Clone returns a deep copy.
func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// ApplyGate applies a bound unitary gate. Directives and measurements are
// ignored.
func (s *StateVector) ApplyGate(g circuit.Gate) error {
	if g.Param != nil {
		return fmt.Errorf("%w: %s", circuit.ErrUnboundParameters, g)
	}
	angle := func(i int) float64 {
		if i < len(g.Params) {
			return g.Params[i]
		}
		return 0
	}
	switch g.Type {
	case circuit.TypeBarrier, circuit.TypeMeasure, circuit.TypeID:
	case circuit.TypeH:
		s.applyH(g.Target)
	case circuit.TypeX:
		s.applyX(g.Target)
	case circuit.TypeY:
		s.applyY(g.Target)
	case circuit.TypeZ:
		s.applyPhase(g.Target, -1)
	case circuit.TypeS:
		s.applyPhase(g.Target, 1i)
	case circuit.TypeSdg:
		s.applyPhase(g.Target, -1i)
	case circuit.TypeT:
		s.applyPhase(g.Target, cmplx.Exp(complex(0, math.Pi/4)))
	case circuit.TypeTdg:
		s.applyPhase(g.Target, cmplx.Exp(complex(0, -math.Pi/4)))
	case circuit.TypeP:
		s.applyPhase(g.Target, cmplx.Exp(complex(0, angle(0))))
	case circuit.TypeRX:
		s.applyRX(g.Target, angle(0))
	case circuit.TypeRY:
		s.applyRY(g.Target, angle(0))
	case circuit.TypeRZ:
		s.applyRZ(g.Target, angle(0))
	case circuit.TypeSX, circuit.TypeU:
		m, _ := circuit.Unitary(g)
		s.ApplyMatrix(g.Target, m)
	case circuit.TypeCX:
		s.applyCX(g.Control, g.Target)
	case circuit.TypeCZ:
		s.applyCZ(g.Control, g.Target)
	case circuit.TypeECR:
		s.applyECR(g.Control, g.Target)
	case circuit.TypeSwap:
		s.applySWAP(g.Control, g.Target)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedGate, g.Type)
	}
	return nil
}

// ApplyMatrix applies an arbitrary single-qubit unitary.
func (s *StateVector) ApplyMatrix(q int, m circuit.Matrix2) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
			s.Amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
		}
	}
}

func (s *StateVector) applyH(q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = hFactor * (a0 + a1)
			s.Amplitudes[j] = hFactor * (a0 - a1)
		}
	}
}

func (s *StateVector) applyX(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyY(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = -1i*s.Amplitudes[j], 1i*s.Amplitudes[i]
		}
	}
}

// applyPhase multiplies the |1> amplitudes of q by factor.
func (s *StateVector) applyPhase(q int, factor complex128) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= factor
		}
	}
}

func (s *StateVector) applyRX(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a0 + js*a1
			s.Amplitudes[j] = js*a0 + c*a1
		}
	}
}

func (s *StateVector) applyRY(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a0 - sn*a1
			s.Amplitudes[j] = sn*a0 + c*a1
		}
	}
}

func (s *StateVector) applyRZ(q int, theta float64) {
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta/2))
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= phase
		} else {
			s.Amplitudes[i] *= cmplx.Conj(phase)
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.Amplitudes {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCZ(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.Amplitudes {
		if i&cBit != 0 && i&tBit != 0 {
			s.Amplitudes[i] *= -1
		}
	}
}

// applyECR applies the echoed cross-resonance gate
// (IX - XY)/√2 with q0 the first (control) qubit.
func (s *StateVector) applyECR(q0, q1 int) {
	b0 := 1 << q0
	b1 := 1 << q1
	f := complex(1/math.Sqrt2, 0)
	for i := range s.Amplitudes {
		if i&b0 != 0 || i&b1 != 0 {
			continue
		}
		i0, i1, i2, i3 := i, i|b0, i|b1, i|b0|b1
		a0, a1, a2, a3 := s.Amplitudes[i0], s.Amplitudes[i1], s.Amplitudes[i2], s.Amplitudes[i3]
		s.Amplitudes[i0] = f * (a1 + 1i*a3)
		s.Amplitudes[i1] = f * (a0 - 1i*a2)
		s.Amplitudes[i2] = f * (1i*a1 + a3)
		s.Amplitudes[i3] = f * (-1i*a0 + a2)
	}
}

func (s *StateVector) applySWAP(q1, q2 int) {
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range s.Amplitudes {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Probabilities returns |amplitude|² for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// QubitProbabilities returns the marginal of every qubit.
func (s *StateVector) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		for q := range s.NumQubits {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

// prob1 returns the probability that qubit q reads 1.
func (s *StateVector) prob1(q int) float64 {
	bit := 1 << q
	p := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// normalize rescales the state to unit norm.
func (s *StateVector) normalize() {
	norm := 0.0
	for _, a := range s.Amplitudes {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	if norm == 0 {
		return
	}
	f := complex(1/math.Sqrt(norm), 0)
	for i := range s.Amplitudes {
		s.Amplitudes[i] *= f
	}
}
