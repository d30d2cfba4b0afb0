package sim

import (
	"math"
	"math/rand/v2"

	"nasscbench/internal/noise"
)

// applyError samples one unravelling of a gate error onto the state.
// qubits are the gate's qubits in gate order.
func (s *StateVector) applyError(qe noise.QuantumError, qubits []int, rng *rand.Rand) {
	if qe.Depolarizing > 0 && rng.Float64() < qe.Depolarizing {
		// A uniformly random Pauli string, identity included, realises the
		// fully mixing channel.
		for _, q := range qubits {
			s.applyPauli(q, rng.IntN(4))
		}
	}
	for i, r := range qe.Relax {
		if i >= len(qubits) {
			break
		}
		s.amplitudeDamp(qubits[i], r.Gamma, rng)
		if r.PhaseFlip > 0 && rng.Float64() < r.PhaseFlip {
			s.applyPhase(qubits[i], -1)
		}
	}
}

// applyPauli applies I, X, Y or Z for p = 0..3.
func (s *StateVector) applyPauli(q, p int) {
	switch p {
	case 1:
		s.applyX(q)
	case 2:
		s.applyY(q)
	case 3:
		s.applyPhase(q, -1)
	}
}

// amplitudeDamp samples the amplitude damping channel with decay
// probability gamma. A jump happens with probability gamma·P(1) and takes
// the qubit to |0>; otherwise the |1> branch is attenuated by √(1-gamma).
func (s *StateVector) amplitudeDamp(q int, gamma float64, rng *rand.Rand) {
	if gamma <= 0 {
		return
	}
	bit := 1 << q
	p1 := s.prob1(q)
	if rng.Float64() < gamma*p1 {
		for i := range s.Amplitudes {
			if i&bit == 0 {
				s.Amplitudes[i] = s.Amplitudes[i|bit]
				s.Amplitudes[i|bit] = 0
			}
		}
	} else {
		f := complex(math.Sqrt(1-gamma), 0)
		for i := range s.Amplitudes {
			if i&bit != 0 {
				s.Amplitudes[i] *= f
			}
		}
	}
	s.normalize()
}

// applyReadout flips a measured bit according to the readout error.
func applyReadout(bit byte, re noise.ReadoutError, rng *rand.Rand) byte {
	if bit == '0' {
		if re.P01 > 0 && rng.Float64() < re.P01 {
			return '1'
		}
		return '0'
	}
	if re.P10 > 0 && rng.Float64() < re.P10 {
		return '0'
	}
	return '1'
}
